package app

import "errors"

// Application errors.
var (
	// ErrUnboundShortcut indicates a shortcut with no candidate set.
	ErrUnboundShortcut = errors.New("unbound shortcut")
)

// InitError reports the component that failed during startup.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
