// Package interp resolves embedded expressions throughout a nested
// document.
//
// Every string leaf of the document, and every string map key, is
// evaluated by a [lang.Engine] against a values map built from the
// caller's [Params] and the global values of a [globals.Store]. The
// resolved document has the same shape as the input: sequences keep their
// length and order, mappings keep their key count.
//
//	in := interp.New(lang.New(funcs.Builtins()))
//	out, err := in.Interpret(ctx, doc, interp.NewParams(map[string]any{
//		"CHAIN_ID": "c-42",
//		"NAME":     "Ann",
//	}))
//
// The parameter bag may itself contain expressions. It is resolved once,
// on first use, and the result is shared by every leaf of every document
// interpreted with the same [Params].
//
// Siblings of a sequence or mapping are resolved concurrently. The first
// failure cancels the rest and is reported as an [*InterpretError] naming
// the failing input.
package interp
