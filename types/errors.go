package types

import "errors"

var (
	// ErrConfiguration is returned at construction time for invalid parameters
	ErrConfiguration = errors.New("invalid configuration")
	// ErrOutOfRange signals an index outside a declared discrete dimension.
	// Correct integrations never produce it.
	ErrOutOfRange = errors.New("index out of range")
)
