package handle

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-scene/internal/growth"
)

// slotState tracks one slot of the table.
type slotState struct {
	generation uint32 // current generation; 0 means retired
	live       bool
}

// Table allocates handles from a generation-tagged free list.
// It is not safe for concurrent use.
type Table struct {
	slots []slotState
	free  []uint32 // stack of free slot indices, lowest on top
	live  int
	log   *zap.Logger
}

// NewTable creates a table with room for capacity handles before growing.
// A nil logger disables diagnostics.
func NewTable(capacity int, log *zap.Logger) *Table {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Table{log: log}
	if capacity > 0 {
		t.grow(capacity)
	}
	return t
}

// grow extends the table so at least required more slots exist.
func (t *Table) grow(required int) {
	oldCap := len(t.slots)
	newCap := growth.Next(oldCap, required)

	for i := oldCap; i < newCap; i++ {
		t.slots = append(t.slots, slotState{generation: 1})
	}

	// Push in reverse so the lowest new slot is popped first.
	for i := newCap - 1; i >= oldCap; i-- {
		t.free = append(t.free, uint32(i))
	}
}

// Allocate returns a fresh handle, growing storage if the free list is empty.
// It never returns Nil.
func (t *Table) Allocate() Handle {
	for {
		if len(t.free) == 0 {
			t.grow(1)
		}
		last := len(t.free) - 1
		slot := t.free[last]
		t.free = t.free[:last]

		s := &t.slots[slot]
		if s.live || s.generation == 0 {
			// The free list must only hold dead, usable slots.
			t.log.DPanic("handle table: free list yielded unusable slot",
				zap.Uint32("slot", slot),
				zap.Bool("live", s.live),
				zap.Uint32("generation", s.generation))
			continue
		}

		s.live = true
		t.live++
		return Make(slot, s.generation)
	}
}

// MaxAcquireGrowth bounds how far past the current capacity Acquire may
// grow the table for a single handle.
const MaxAcquireGrowth = 1 << 16

// WellFormed reports whether h could ever be acquired: it has a non-zero
// generation and its slot lies below Cap()+MaxAcquireGrowth.
func (t *Table) WellFormed(h Handle) bool {
	return h.Generation() != 0 && int(h.Slot()) < len(t.slots)+MaxAcquireGrowth
}

// Acquire claims a caller-chosen handle so object identity can be reproduced
// deterministically. It fails if h is malformed (see WellFormed), if its
// slot is already live, or if h's generation is older than the slot's
// current generation.
func (t *Table) Acquire(h Handle) bool {
	if !t.WellFormed(h) {
		return false
	}

	slot := h.Slot()
	if int(slot) >= len(t.slots) {
		t.grow(int(slot) + 1 - len(t.slots))
	}

	s := &t.slots[slot]
	if s.live || s.generation == 0 || h.Generation() < s.generation {
		return false
	}

	// Remove the slot from the free list.
	for i := len(t.free) - 1; i >= 0; i-- {
		if t.free[i] == slot {
			t.free = append(t.free[:i], t.free[i+1:]...)
			break
		}
	}

	s.generation = h.Generation()
	s.live = true
	t.live++
	return true
}

// Has reports whether h refers to a live slot with a matching generation.
func (t *Table) Has(h Handle) bool {
	if h.IsZero() {
		return false
	}
	slot := h.Slot()
	if int(slot) >= len(t.slots) {
		return false
	}
	s := t.slots[slot]
	return s.live && s.generation == h.Generation()
}

// Free releases h and bumps its slot's generation. It returns false if h is
// not currently valid.
func (t *Table) Free(h Handle) bool {
	if !t.Has(h) {
		return false
	}

	slot := h.Slot()
	s := &t.slots[slot]
	s.live = false
	s.generation++
	t.live--

	if s.generation == 0 {
		// Wrapped: retire the slot so no stale handle can alias it.
		t.log.Debug("handle table: retiring exhausted slot", zap.Uint32("slot", slot))
		return true
	}
	t.free = append(t.free, slot)
	return true
}

// FreeCount returns the number of slots available without growing.
func (t *Table) FreeCount() int {
	return len(t.free)
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	return t.live
}

// Cap returns the number of slots the table currently owns.
func (t *Table) Cap() int {
	return len(t.slots)
}

// Release reports outstanding live handles. It is purely diagnostic.
func (t *Table) Release() {
	if t.live > 0 {
		t.log.Warn("handle table released with live handles", zap.Int("live", t.live))
	}
}
