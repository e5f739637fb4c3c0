package store

import "github.com/pkg/errors"

// Error classes. Call sites wrap these with context; use errors.Is to test
// the class.
var (
	// ErrInvalidParameter reports a nil handle or malformed input.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidOperation reports an operation on an object that does not exist.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInternal reports a broken container invariant.
	ErrInternal = errors.New("internal error")
)
