package repl

import "github.com/ardnew/atexpr/lang"

// Sentinel errors.
var (
	ErrOutOfBounds  = lang.NewError("index out of range")
	ErrEditDeclined = lang.NewError("decline edit")
	ErrNoEngine     = lang.NewError("no interpreter")
)
