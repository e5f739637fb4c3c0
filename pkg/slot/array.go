// Package slot provides Array, a packed container addressed by stable
// external indices.
//
// Values live contiguously in a dense slice. A sparse map translates the
// external index to a dense position and a reverse map translates back, so
// Erase can move the last live value into the hole in O(1).
package slot

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-scene/internal/growth"
)

// absent marks a sparse index with no dense entry.
const absent = -1

// Array is a dense array of T addressed by sparse uint32 indices.
// Pointers returned by Insert and At are valid until the next Insert or
// Erase. The zero value is ready to use.
type Array[T any] struct {
	data          []T
	denseToSparse []uint32
	sparseToDense []int32
}

// ensure makes index addressable in the sparse map.
func (a *Array[T]) ensure(index uint32) {
	if int(index) < len(a.sparseToDense) {
		return
	}
	oldCap := len(a.sparseToDense)
	newCap := growth.Next(oldCap, int(index)+1-oldCap)
	for i := oldCap; i < newCap; i++ {
		a.sparseToDense = append(a.sparseToDense, absent)
	}
}

// Insert places a zero value at index and returns a pointer to it.
func (a *Array[T]) Insert(index uint32) *T {
	var zero T
	return a.InsertValue(index, zero)
}

// InsertValue places v at index. Inserting at a live index replaces the
// existing value in place.
func (a *Array[T]) InsertValue(index uint32, v T) *T {
	a.ensure(index)

	if d := a.sparseToDense[index]; d != absent {
		var zero T
		a.data[d] = zero
		a.data[d] = v
		return &a.data[d]
	}

	d := len(a.data)
	a.data = append(a.data, v)
	a.denseToSparse = append(a.denseToSparse, index)
	a.sparseToDense[index] = int32(d)
	return &a.data[d]
}

// Erase removes the value at index. It returns false if index is not live.
func (a *Array[T]) Erase(index uint32) bool {
	if !a.Has(index) {
		return false
	}

	d := a.sparseToDense[index]
	last := int32(len(a.data) - 1)
	if d != last {
		moved := a.denseToSparse[last]
		a.data[d] = a.data[last]
		a.denseToSparse[d] = moved
		a.sparseToDense[moved] = d
	}

	var zero T
	a.data[last] = zero
	a.data = a.data[:last]
	a.denseToSparse = a.denseToSparse[:last]
	a.sparseToDense[index] = absent
	return true
}

// At returns a pointer to the value at index.
func (a *Array[T]) At(index uint32) (*T, bool) {
	if !a.Has(index) {
		return nil, false
	}
	return &a.data[a.sparseToDense[index]], true
}

// Has reports whether index holds a value.
func (a *Array[T]) Has(index uint32) bool {
	return int(index) < len(a.sparseToDense) && a.sparseToDense[index] != absent
}

// Len returns the number of live values.
func (a *Array[T]) Len() int {
	return len(a.data)
}

// Dense returns the packed values. The slice aliases internal storage.
func (a *Array[T]) Dense() []T {
	return a.data
}

// IndexAt returns the sparse index stored at dense position d.
func (a *Array[T]) IndexAt(d int) uint32 {
	return a.denseToSparse[d]
}

// Clear removes every value but keeps the allocated capacity.
func (a *Array[T]) Clear() {
	for _, s := range a.denseToSparse {
		a.sparseToDense[s] = absent
	}
	clear(a.data)
	a.data = a.data[:0]
	a.denseToSparse = a.denseToSparse[:0]
}

// Release reports values still held by the array. It is purely diagnostic.
func (a *Array[T]) Release(log *zap.Logger, name string) {
	if len(a.data) > 0 && log != nil {
		log.Warn("slot array released with live entries",
			zap.String("array", name),
			zap.Int("live", len(a.data)))
	}
}
