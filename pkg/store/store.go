// Package store provides Store, the per-kind object container used for every
// scene object type.
//
// A Store composes a handle.Table with three slot arrays keyed by the
// handle's slot: the payload, its metadata, and the handle itself (for
// enumeration in dense order). All four are mutated together; an object
// exists iff its handle is live in the table and present in every array.
package store

import (
	"iter"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-scene/pkg/handle"
	"github.com/Faultbox/midgard-scene/pkg/slot"
)

// Metadata describes where an object came from.
type Metadata struct {
	AssetPath string
	Name      string
	Valid     bool
}

// Config configures a Store.
type Config struct {
	Name     string      // kind name used in diagnostics
	Capacity int         // initial handle capacity
	Logger   *zap.Logger // nil disables diagnostics
}

// Store holds objects of one kind.
type Store[T any] struct {
	name    string
	handles *handle.Table
	payload slot.Array[T]
	meta    slot.Array[Metadata]
	reverse slot.Array[handle.Handle]
	hook    func(handle.Handle, *T)
	log     *zap.Logger
}

// New creates an empty store.
func New[T any](cfg Config) *Store[T] {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("kind", cfg.Name))
	return &Store[T]{
		name:    cfg.Name,
		handles: handle.NewTable(cfg.Capacity, log),
		log:     log,
	}
}

// Name returns the kind name.
func (s *Store[T]) Name() string {
	return s.name
}

// OnDestroy installs a hook that runs before an object is removed. It is
// used to release side tables kept outside the store.
func (s *Store[T]) OnDestroy(fn func(handle.Handle, *T)) {
	s.hook = fn
}

// Create allocates a new object with a zero payload.
func (s *Store[T]) Create() handle.Handle {
	h := s.handles.Allocate()
	s.insert(h)
	return h
}

// CreateAt creates an object under a caller-chosen handle.
func (s *Store[T]) CreateAt(h handle.Handle) error {
	if h.IsZero() {
		return errors.Wrapf(ErrInvalidParameter, "%s: create at nil handle", s.name)
	}
	if !s.handles.WellFormed(h) {
		return errors.Wrapf(ErrInvalidParameter, "%s: handle %s out of range", s.name, h)
	}
	if !s.handles.Acquire(h) {
		return errors.Wrapf(ErrInvalidOperation, "%s: handle %s unavailable", s.name, h)
	}
	s.insert(h)
	return nil
}

func (s *Store[T]) insert(h handle.Handle) {
	idx := h.Slot()
	s.payload.Insert(idx)
	s.meta.InsertValue(idx, Metadata{Valid: true})
	s.reverse.InsertValue(idx, h)
}

// Destroy removes the object identified by h.
func (s *Store[T]) Destroy(h handle.Handle) error {
	if h.IsZero() {
		return errors.Wrapf(ErrInvalidParameter, "%s: destroy nil handle", s.name)
	}
	if !s.Has(h) {
		return errors.Wrapf(ErrInvalidOperation, "%s: destroy %s: no such object", s.name, h)
	}

	idx := h.Slot()
	if s.hook != nil {
		p, _ := s.payload.At(idx)
		s.hook(h, p)
	}

	s.payload.Erase(idx)
	s.meta.Erase(idx)
	s.reverse.Erase(idx)
	if !s.handles.Free(h) {
		s.log.DPanic("store: handle vanished during destroy", zap.Stringer("handle", h))
		return errors.Wrapf(ErrInternal, "%s: free %s", s.name, h)
	}
	return nil
}

// Clear destroys every object, always restarting from the first remaining
// one so hooks that destroy other objects cannot invalidate the walk.
func (s *Store[T]) Clear() {
	for s.reverse.Len() > 0 {
		h := s.reverse.Dense()[0]
		if err := s.Destroy(h); err != nil {
			s.log.DPanic("store: clear failed", zap.Error(err))
			return
		}
	}
}

// Has reports whether h identifies a live object.
func (s *Store[T]) Has(h handle.Handle) bool {
	return s.handles.Has(h) && s.payload.Has(h.Slot())
}

// Get returns the payload for h, or nil if h is not live.
func (s *Store[T]) Get(h handle.Handle) *T {
	if !s.Has(h) {
		return nil
	}
	p, _ := s.payload.At(h.Slot())
	return p
}

// Len returns the number of live objects.
func (s *Store[T]) Len() int {
	return s.payload.Len()
}

// At returns the payload at dense position i.
func (s *Store[T]) At(i int) *T {
	if i < 0 || i >= s.payload.Len() {
		return nil
	}
	return &s.payload.Dense()[i]
}

// HandleAt returns the handle at dense position i, or handle.Nil.
func (s *Store[T]) HandleAt(i int) handle.Handle {
	if i < 0 || i >= s.reverse.Len() {
		return handle.Nil
	}
	return s.reverse.Dense()[i]
}

// All iterates live objects in dense order. The store must not be mutated
// during iteration.
func (s *Store[T]) All() iter.Seq2[handle.Handle, *T] {
	return func(yield func(handle.Handle, *T) bool) {
		handles := s.reverse.Dense()
		data := s.payload.Dense()
		for i := range handles {
			if !yield(handles[i], &data[i]) {
				return
			}
		}
	}
}

// Handles returns a copy of every live handle in dense order.
func (s *Store[T]) Handles() []handle.Handle {
	return append([]handle.Handle(nil), s.reverse.Dense()...)
}

// Metadata returns the metadata for h, or nil if h is not live.
func (s *Store[T]) Metadata(h handle.Handle) *Metadata {
	if !s.Has(h) {
		return nil
	}
	m, _ := s.meta.At(h.Slot())
	return m
}

// SetName sets the display name of h.
func (s *Store[T]) SetName(h handle.Handle, name string) error {
	m := s.Metadata(h)
	if m == nil {
		return errors.Wrapf(ErrInvalidOperation, "%s: set name on %s", s.name, h)
	}
	m.Name = name
	return nil
}

// SetAssetPath sets the asset origin path of h.
func (s *Store[T]) SetAssetPath(h handle.Handle, path string) error {
	m := s.Metadata(h)
	if m == nil {
		return errors.Wrapf(ErrInvalidOperation, "%s: set asset path on %s", s.name, h)
	}
	m.AssetPath = path
	return nil
}

// FindByAssetPath returns the first object whose asset path equals path.
// It is a linear scan meant for import-time deduplication.
func (s *Store[T]) FindByAssetPath(path string) handle.Handle {
	metas := s.meta.Dense()
	for i := range metas {
		if metas[i].AssetPath == path {
			return s.reverse.Dense()[i]
		}
	}
	return handle.Nil
}

// FindByName returns the first object whose display name equals name.
func (s *Store[T]) FindByName(name string) handle.Handle {
	metas := s.meta.Dense()
	for i := range metas {
		if metas[i].Name == name {
			return s.reverse.Dense()[i]
		}
	}
	return handle.Nil
}

// Release reports objects still held by the store. It is purely diagnostic
// and does not free anything.
func (s *Store[T]) Release() {
	s.payload.Release(s.log, "payload")
	s.meta.Release(s.log, "metadata")
	s.reverse.Release(s.log, "reverse")
	s.handles.Release()
}
