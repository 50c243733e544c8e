package turtle

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSymbol indicates a symbol outside the turtle alphabet.
	ErrInvalidSymbol = errors.New("turtle: invalid symbol")

	// ErrUnknownPolicy indicates an unrecognized symbol policy name.
	ErrUnknownPolicy = errors.New("turtle: unknown symbol policy")
)

// InvalidSymbolError reports where a strict interpretation stopped.
type InvalidSymbolError struct {
	Symbol rune
	Offset int
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("turtle: invalid symbol %q at offset %d", e.Symbol, e.Offset)
}

func (e *InvalidSymbolError) Unwrap() error {
	return ErrInvalidSymbol
}
