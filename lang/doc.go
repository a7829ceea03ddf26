// Package lang implements the template expression language: a lexer, a
// recursive-descent parser, and a tree-walking evaluator.
//
// A template is literal text interleaved with calls of the form
//
//	@NAME(arg, arg, ...)
//
// where NAME is matched case-insensitively against a [Registry] and each
// argument is a nested call, a number, or a quoted or bare string. Quoted
// arguments reach functions without their quotes.
//
// Results concatenate. A template consisting of a single call (ignoring
// empty text) keeps the native type of that call's result:
//
//	e := lang.New(funcs.Builtins())
//	v, _ := e.Interpret(ctx, "@ADD(1,2,3)", nil)   // int64(6)
//	s, _ := e.Interpret(ctx, "n=@ADD(1,2)", nil)   // "n=3"
//
// A comma separates arguments unless both of its neighbors are quote
// characters, so @CONCAT('a','b') receives the single argument a','b. Put a
// space after the comma to split quoted arguments. Commas inside a quoted
// argument that are not directly between quotes still split it, and
// escaped quotes are not recognized.
//
// A marker run names a call when it matches a registered function or is
// directly followed by '('. Otherwise it is text, so "user@example.com"
// passes through unchanged, but "me@home(now)" is a call to an unknown
// function and fails with [ErrFunctionNotFound].
//
// Compiled templates are cached per [Engine], keyed by the xxh3 hash of
// their source.
package lang
