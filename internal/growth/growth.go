// Package growth holds the capacity policy shared by the allocators.
package growth

// Next returns the capacity to grow to when current storage of size old
// must hold at least required more elements. Growth is geometric (1.5x)
// plus the requested amount, so repeated single-element growth stays
// amortized O(1).
func Next(old, required int) int {
	if required < 1 {
		required = 1
	}
	return old + old/2 + required
}
