package lang

import "strconv"

// Marker is the character that introduces a function reference.
const Marker = '@'

// Kind classifies a [Token].
type Kind int

const (
	KindWhitespace Kind = iota
	KindOperator
	KindNumber
	KindString
	KindIdentifier
	KindEnd
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindWhitespace:
		return "whitespace"
	case KindOperator:
		return "operator"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindIdentifier:
		return "identifier"
	case KindEnd:
		return "end"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Token is one lexical unit of a template.
type Token struct {
	Kind   Kind
	Value  string
	Offset int // rune offset of the first character
}

// String returns the token text, or "(end)" for the end sentinel.
func (t Token) String() string {
	if t.Kind == KindEnd {
		return "(end)"
	}

	return t.Value
}

// Is reports whether t is an operator token with the given text.
func (t Token) Is(op string) bool {
	return t.Kind == KindOperator && t.Value == op
}
