package lang

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

// Lex splits input into tokens. Identifiers are only produced for names
// that reg resolves, or for marker runs immediately followed by "(" so
// that calls to unknown functions fail during evaluation rather than
// passing through as text. Digits continue a marker run once it has begun,
// so names such as @UUIDV4 lex as one token. The result always ends with
// a [KindEnd] token.
func Lex(input string, reg Registry) ([]Token, error) {
	l := &lexer{
		input: []rune(input),
		reg:   reg,
	}

	return l.run()
}

type lexer struct {
	input  []rune
	reg    Registry
	tokens []Token
	pos    int
}

// eof is returned by at for positions outside the input.
const eof rune = -1

func (l *lexer) at(i int) rune {
	if i < 0 || i >= len(l.input) {
		return eof
	}

	return l.input[i]
}

func (l *lexer) emit(kind Kind, value string, start int) {
	l.tokens = append(l.tokens, Token{Kind: kind, Value: value, Offset: start})
}

func (l *lexer) run() ([]Token, error) {
	if len(l.input) == 0 {
		l.emit(KindString, "", 0)
	}

	for l.pos < len(l.input) {
		c := l.at(l.pos)
		start := l.pos

		switch {
		case isSpace(c):
			for isSpace(l.at(l.pos)) {
				l.pos++
			}

			l.emit(KindWhitespace, string(l.input[start:l.pos]), start)

		case l.isOperator(l.pos):
			l.pos++
			l.emit(KindOperator, string(c), start)

		case isDigit(c):
			l.lexNumber()

		case c == Marker:
			l.lexIdentifier()

		case l.isString(l.pos):
			l.lexString()

		default:
			return nil, ErrLex.
				Detail(strconv.QuoteRune(c)+" at offset "+strconv.Itoa(start)).
				With(slog.String("char", string(c)), slog.Int("offset", start))
		}
	}

	l.emit(KindEnd, "", len(l.input))

	return l.tokens, nil
}

func (l *lexer) lexNumber() {
	start := l.pos

	for isDigit(l.at(l.pos)) {
		l.pos++
	}

	if l.at(l.pos) == '.' {
		l.pos++

		for isDigit(l.at(l.pos)) {
			l.pos++
		}
	}

	l.emit(KindNumber, string(l.input[start:l.pos]), start)
}

func (l *lexer) lexIdentifier() {
	start := l.pos

	l.pos++
	for l.isString(l.pos) || (l.pos > start+1 && isDigit(l.at(l.pos))) {
		l.pos++
	}

	text := string(l.input[start:l.pos])
	name := strings.ToLower(text[1:])

	known := false
	if l.reg != nil && name != "" {
		_, known = l.reg.Lookup(name)
	}

	if known || (name != "" && l.at(l.pos) == '(') {
		l.emit(KindIdentifier, text, start)

		return
	}

	l.emit(KindString, text, start)
}

// lexString consumes a bare or quoted run. A run opened by a quote keeps
// accumulating any character until it ends with the same quote.
func (l *lexer) lexString() {
	start := l.pos

	var b strings.Builder

	for {
		b.WriteRune(l.at(l.pos))
		l.pos++

		if l.isString(l.pos) {
			continue
		}

		if l.at(l.pos) != eof && openQuote(b.String()) {
			continue
		}

		break
	}

	l.emit(KindString, b.String(), start)
}

// openQuote reports whether s starts with a quote that has not been
// closed yet.
func openQuote(s string) bool {
	for _, q := range []string{"'", `"`} {
		if s == q || (strings.HasPrefix(s, q) && !strings.HasSuffix(s, q)) {
			return true
		}
	}

	return false
}

// isOperator reports whether the rune at i is a parenthesis or a comma
// separator. A comma directly between two quote characters is text.
func (l *lexer) isOperator(i int) bool {
	switch l.at(i) {
	case '(', ')':
		return true
	case ',':
		return !(isQuote(l.at(i-1)) && isQuote(l.at(i+1)))
	default:
		return false
	}
}

func (l *lexer) isString(i int) bool {
	c := l.at(i)

	return c != eof &&
		!l.isOperator(i) &&
		!isDigit(c) &&
		!isSpace(c) &&
		c != Marker &&
		!isControl(c)
}

func isSpace(c rune) bool { return c != eof && unicode.IsSpace(c) }

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isQuote(c rune) bool { return c == '\'' || c == '"' }

func isControl(c rune) bool { return unicode.IsControl(c) && !unicode.IsSpace(c) }
