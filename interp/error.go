package interp

import (
	"errors"
	"log/slog"

	"github.com/ardnew/atexpr/lang"
)

// Predefined errors (sentinel values).
var (
	ErrNoEngine = lang.NewError("no engine")
	ErrParams   = lang.NewError("parameters not a mapping")
)

// component names the source of an [InterpretError].
const component = "interpreter"

// InterpretError reports a failure to resolve one input of a document.
type InterpretError struct {
	// Chain is the CHAIN_ID of the parameter bag, if any.
	Chain string
	// Process is the PROCESS_ID of the parameter bag, if any.
	Process string
	// Input is the text that failed to resolve.
	Input string
	Err   error
}

// Prefix returns the context prefix derived from the bag identifiers.
// CHAIN_ID takes precedence over PROCESS_ID.
func (e *InterpretError) Prefix() string {
	switch {
	case e.Chain != "":
		return "CHAIN: " + e.Chain
	case e.Process != "":
		return "PROCESS: " + e.Process
	default:
		return ""
	}
}

// Error renders "interpreter: <prefix>: <cause> IN: <input>". The prefix
// is omitted when the bag has no identifier.
func (e *InterpretError) Error() string {
	s := component + ": "
	if p := e.Prefix(); p != "" {
		s += p + ": "
	}

	return s + e.Err.Error() + " IN: " + e.Input
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *InterpretError) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *InterpretError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("input", e.Input),
		slog.Any("cause", e.Err),
	}

	if e.Chain != "" {
		attrs = append(attrs, slog.String("chain_id", e.Chain))
	}

	if e.Process != "" {
		attrs = append(attrs, slog.String("process_id", e.Process))
	}

	return slog.GroupValue(attrs...)
}

// rewrap wraps err for input unless it already carries an InterpretError.
func rewrap(p *Params, input string, err error) error {
	var ie *InterpretError
	if errors.As(err, &ie) {
		return err
	}

	ie = &InterpretError{Input: input, Err: err}
	if p != nil {
		ie.Chain, ie.Process = p.ids()
	}

	return ie
}
