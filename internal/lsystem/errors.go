package lsystem

import "errors"

// ErrMalformedRule indicates a production rule that could not be parsed.
var ErrMalformedRule = errors.New("lsystem: malformed production rule")
