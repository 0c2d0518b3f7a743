package engine

import "errors"

// ErrEmptyKey and ErrEmptyValue guard the programmer-error edge cases
// spec.md §4.8 names for put: both key and value must be non-empty.
var (
	ErrEmptyKey   = errors.New("engine: key must not be empty")
	ErrEmptyValue = errors.New("engine: value must not be empty")
)
