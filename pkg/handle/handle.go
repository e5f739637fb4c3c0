// Package handle implements generation-tagged handles and the table that
// allocates them.
//
// A Handle packs a 32-bit generation in its high half and a 32-bit slot
// index in its low half. A handle is valid while its slot is live and the
// slot's stored generation matches. Freeing a slot bumps its generation, so
// a stale handle never aliases whatever object reuses the slot later.
package handle

import "fmt"

// Handle is an opaque (generation, slot) pair.
type Handle uint64

// Nil is the zero handle. It is never valid.
const Nil Handle = 0

// Make packs a slot index and generation into a handle.
func Make(slot, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(slot))
}

// Slot returns the slot index.
func (h Handle) Slot() uint32 {
	return uint32(h)
}

// Generation returns the generation counter.
func (h Handle) Generation() uint32 {
	return uint32(h >> 32)
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h == Nil
}

// String returns a human-readable form for logs.
func (h Handle) String() string {
	if h == Nil {
		return "nil"
	}
	return fmt.Sprintf("%d@%d", h.Slot(), h.Generation())
}
