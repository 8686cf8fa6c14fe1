package grammar

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by grammar operations.
var (
	// ErrInvalidTable indicates a rule table failed validation.
	ErrInvalidTable = errors.New("invalid rule table")

	// ErrUnknownGrammar indicates a grammar name is not registered.
	ErrUnknownGrammar = errors.New("unknown grammar")

	// ErrDuplicateGrammar indicates a grammar name is already registered.
	ErrDuplicateGrammar = errors.New("grammar already registered")

	// ErrUnsupportedFormat indicates a grammar file has an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported grammar format")
)

// ConfigError describes a malformed rule table.
type ConfigError struct {
	// Grammar is the table name.
	Grammar string
	// State is the state holding the offending rule (empty for table-level problems).
	State string
	// Rule is the rule index within the state, or -1.
	Rule int
	// Message describes the problem.
	Message string
	// Err is the underlying error. Defaults to ErrInvalidTable.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("grammar ")
	sb.WriteString(e.Grammar)
	if e.State != "" {
		fmt.Fprintf(&sb, ": state %q", e.State)
	}
	if e.Rule >= 0 {
		fmt.Fprintf(&sb, " rule %d", e.Rule)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidTable
	}
	return e.Err
}

func tableError(grammar, msg string, args ...any) *ConfigError {
	return &ConfigError{Grammar: grammar, Rule: -1, Message: fmt.Sprintf(msg, args...)}
}

func ruleError(grammar, state string, rule int, msg string, args ...any) *ConfigError {
	return &ConfigError{Grammar: grammar, State: state, Rule: rule, Message: fmt.Sprintf(msg, args...)}
}
