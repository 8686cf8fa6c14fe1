package completion

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/lmlassist/internal/lexer"
)

// Errors returned by the completion engine.
var (
	// ErrUnknownSet indicates the requested candidate set does not exist.
	ErrUnknownSet = errors.New("unknown candidate set")

	// ErrPositionOutOfRange indicates a cursor outside the document.
	ErrPositionOutOfRange = errors.New("position out of range")
)

// SetError reports an unknown candidate set.
type SetError struct {
	Set       string
	Available []string
}

// Error implements the error interface.
func (e *SetError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown candidate set %q", e.Set)
	}
	return fmt.Sprintf("unknown candidate set %q (available: %s)", e.Set, strings.Join(e.Available, ", "))
}

// Unwrap returns ErrUnknownSet.
func (e *SetError) Unwrap() error {
	return ErrUnknownSet
}

// PositionError reports a cursor the document cannot contain.
type PositionError struct {
	Position lexer.Position
	Reason   string
}

// Error implements the error interface.
func (e *PositionError) Error() string {
	return fmt.Sprintf("position %d:%d: %s", e.Position.Line, e.Position.Column, e.Reason)
}

// Unwrap returns ErrPositionOutOfRange.
func (e *PositionError) Unwrap() error {
	return ErrPositionOutOfRange
}
