package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/atexpr/lang"
)

// signatureHintStyle styles for parameter hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // lowercase function name without the marker
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// isNameRune reports whether r may appear in a function name.
func isNameRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// detectFunctionCall reports the innermost "@NAME(" call enclosing cursor
// and the index of the argument under it. Quoted text is skipped, so
// parentheses and commas inside quotes are ignored.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Record the offset of every open paren not inside quotes, and the
	// top-level comma count at each nesting level.
	var (
		opens  []int
		commas []int
		quote  rune
	)

	for i, r := range input[:cursor] {
		if quote != 0 {
			if r == quote {
				quote = 0
			}

			continue
		}

		switch r {
		case '\'', '"':
			quote = r
		case '(':
			opens = append(opens, i)
			commas = append(commas, 0)
		case ')':
			if n := len(opens); n > 0 {
				opens = opens[:n-1]
				commas = commas[:n-1]
			}
		case ',':
			if n := len(commas); n > 0 {
				commas[n-1]++
			}
		}
	}

	if len(opens) == 0 {
		return functionCall{}
	}

	open := opens[len(opens)-1]

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isNameRune(r) {
			break
		}

		start -= size
	}

	if start == 0 || start == open || input[start-1] != '@' {
		return functionCall{}
	}

	return functionCall{
		name:     strings.ToLower(input[start:open]),
		argIndex: commas[len(commas)-1],
		inCall:   true,
	}
}

// getSignature returns the call signature of the named function and its
// parameter names. It returns an empty signature for unknown functions.
func getSignature(reg lang.Registry, name string) (signature string, params []string) {
	if reg == nil {
		return "", nil
	}

	fn, ok := reg.Lookup(name)
	if !ok {
		return "", nil
	}

	usage := fn.Usage
	if usage == "" {
		usage = strings.ToUpper(fn.Name) + "(...)"
	}

	return parseUsage(usage)
}

// parseUsage splits a usage line such as "HASH(s, [alg=sha256])" into its
// signature prefix and the top-level parameters. Text following the closing
// parenthesis is dropped.
func parseUsage(usage string) (signature string, params []string) {
	open := strings.IndexByte(usage, '(')
	if open < 0 {
		return usage, nil
	}

	var (
		depth int
		quote rune
		last  = open + 1
	)

	for i, r := range usage[open:] {
		i += open

		if quote != 0 {
			if r == quote {
				quote = 0
			}

			continue
		}

		switch r {
		case '"', '\'':
			quote = r
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--

			if depth == 0 {
				if p := strings.TrimSpace(usage[last:i]); p != "" {
					params = append(params, p)
				}

				return usage[:i+1], params
			}
		case ',':
			if depth == 1 {
				params = append(params, strings.TrimSpace(usage[last:i]))
				last = i + 1
			}
		}
	}

	return usage, params
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	openParen := strings.Index(signature, "(")
	if openParen == -1 {
		return signatureStyle.Render(signature)
	}

	funcName := "@" + signature[:openParen]

	if len(params) == 0 {
		return signatureNameStyle.Render(funcName) +
			signatureStyle.Render("()")
	}

	var b strings.Builder
	b.WriteString(signatureNameStyle.Render(funcName))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		// A variadic parameter stays highlighted for every later argument.
		isVariadic := strings.HasSuffix(param, "...")

		if (isVariadic && currentArgIdx >= i) ||
			(!isVariadic && currentArgIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
