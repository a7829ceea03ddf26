package lang

import (
	"log/slog"
	"strconv"
	"strings"
)

// DefaultMaxDepth is the default maximum nesting depth of calls, both when
// parsing and when evaluating dynamically defined functions.
const DefaultMaxDepth = 100

// Parse builds the top-level node sequence from tokens using
// [DefaultMaxDepth].
func Parse(tokens []Token) ([]Node, error) {
	return parse(tokens, DefaultMaxDepth)
}

func parse(tokens []Token, maxDepth int) ([]Node, error) {
	p := &parser{tokens: tokens, maxDepth: maxDepth}

	return p.parseTemplate()
}

// parser holds the parser state.
type parser struct {
	tokens   []Token
	pos      int
	depth    int
	maxDepth int
}

// peek returns the current token, or an end token past the input.
func (p *parser) peek() Token {
	if p.pos >= len(p.tokens) {
		off := 0
		if n := len(p.tokens); n > 0 {
			off = p.tokens[n-1].Offset
		}

		return Token{Kind: KindEnd, Offset: off}
	}

	return p.tokens[p.pos]
}

func (p *parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}

	return tok
}

func (p *parser) skipWhitespace() {
	for p.peek().Kind == KindWhitespace {
		p.pos++
	}
}

// parseTemplate parses: (call | literal)* end.
func (p *parser) parseTemplate() ([]Node, error) {
	var nodes []Node

	for tok := p.peek(); tok.Kind != KindEnd; tok = p.peek() {
		if tok.Kind == KindIdentifier {
			call, err := p.parseCall()
			if err != nil {
				return nil, err
			}

			nodes = append(nodes, call)

			continue
		}

		nodes = append(nodes, Literal{Token: p.advance()})
	}

	return nodes, nil
}

// parseCall parses: identifier '(' (argument (','? argument)*)? ')'.
func (p *parser) parseCall() (Node, error) {
	ident := p.advance()

	p.depth++
	defer func() { p.depth-- }()

	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return nil, ErrMaxDepthExceeded.
			Detail("at offset "+strconv.Itoa(ident.Offset)).
			With(slog.Int("max_depth", p.maxDepth))
	}

	if tok := p.peek(); !tok.Is("(") {
		return nil, p.unexpected("(", tok, "after identifier "+ident.Value)
	}

	p.advance()
	p.skipWhitespace()

	call := Call{
		Name:   strings.ToLower(strings.TrimPrefix(ident.Value, string(Marker))),
		Offset: ident.Offset,
	}

	if p.peek().Is(")") {
		p.advance()

		return call, nil
	}

	for {
		if p.peek().Is(",") {
			p.advance()
		}

		p.skipWhitespace()

		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}

		call.Args = append(call.Args, arg)

		p.skipWhitespace()

		tok := p.peek()
		if tok.Kind == KindEnd || (tok.Kind == KindOperator && !tok.Is(",")) {
			break
		}
	}

	if tok := p.peek(); !tok.Is(")") {
		return nil, p.unexpected(")", tok, "to close "+ident.Value)
	}

	p.advance()

	return call, nil
}

// parseArgument parses: call | number | string.
func (p *parser) parseArgument() (Node, error) {
	tok := p.peek()

	switch tok.Kind {
	case KindIdentifier:
		return p.parseCall()

	case KindNumber, KindString:
		return Literal{Token: p.advance()}, nil

	default:
		return nil, p.unexpected("argument", tok, "in argument list")
	}
}

func (p *parser) unexpected(expected string, found Token, where string) *Error {
	return ErrSyntax.
		Detail("expected "+strconv.Quote(expected)+" "+where+
			", found "+strconv.Quote(found.String())+
			" at offset "+strconv.Itoa(found.Offset)).
		With(
			slog.String("expected", expected),
			slog.String("found", found.String()),
			slog.Int("offset", found.Offset),
		)
}
