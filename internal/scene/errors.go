package scene

import "errors"

var (
	// ErrTooManySymbols indicates an expansion longer than MaxSymbols.
	ErrTooManySymbols = errors.New("scene: expansion exceeds symbol limit")
)
