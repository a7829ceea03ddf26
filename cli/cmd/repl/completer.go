package repl

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/atexpr/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "funcs", "params", "set", "unset", "edit", "clear", "quit",
}

// keyFuncs are the functions whose first argument names a value.
var keyFuncs = []string{"gv", "gvq", "gvescape", "gvunescape"}

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes. The function marker '@' is part of a word.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '(', ')', ',', '\'', '"':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input.
// Returns an empty word when the cursor sits on a boundary (after a space,
// after an open paren, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Walk backward from cursor to find word start.
	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	// Walk forward from cursor to find word end.
	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	word = input[start:end]

	return word, start, end
}

// functionCandidates returns "@NAME" for every registered name.
func (m model) functionCandidates() []string {
	out := make([]string, len(m.names))
	for i, name := range m.names {
		out[i] = "@" + strings.ToUpper(name)
	}

	return out
}

// keyCandidates returns the sorted parameter keys.
func (m model) keyCandidates() []string {
	return slices.Sorted(func(yield func(string) bool) {
		for k := range m.params.Raw() {
			if !yield(k) {
				return
			}
		}
	})
}

// allMatches wraps every candidate as an unfiltered match.
func allMatches(candidates []string) fuzzy.Matches {
	matches := make(fuzzy.Matches, len(candidates))
	for i, c := range candidates {
		matches[i] = fuzzy.Match{Str: c, Index: i}
	}

	return matches
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries.
//
// In eval mode a word starting with '@' completes function names, and the
// first argument of a value lookup such as @GV( completes parameter keys.
// In control mode the first word completes commands and the argument of
// set and unset completes parameter keys.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, ws, we := wordBounds(input, cursor)
	wordStart, wordEnd = ws, we

	switch m.mode {
	case modeCtrl:
		fields := strings.Fields(input[:wordStart])

		switch {
		case len(fields) == 0:
			if word == "" {
				return nil, nil, wordStart, wordEnd
			}

			candidates = ctrlCommands

		case len(fields) == 1 && (fields[0] == "set" || fields[0] == "unset"):
			candidates = m.keyCandidates()
			if word == "" {
				return allMatches(candidates), candidates, wordStart, wordEnd
			}

		default:
			return nil, nil, wordStart, wordEnd
		}

	default:
		call := detectFunctionCall(input, cursor)

		switch {
		case strings.HasPrefix(word, "@"):
			candidates = m.functionCandidates()
			word = strings.ToUpper(word)

		case call.inCall && call.argIndex == 0 && slices.Contains(keyFuncs, call.name):
			candidates = m.keyCandidates()
			if word == "" {
				return allMatches(candidates), candidates, wordStart, wordEnd
			}

		default:
			return nil, nil, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	matches = fuzzy.Find(word, candidates)

	return matches, candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		selected := tabActive && i == suggIdx
		rendered := renderCandidate(match, selected)
		candidateWidth := lipgloss.Width(rendered)

		entryWidth := candidateWidth
		if i > 0 {
			entryWidth += sepWidth
		}

		// Check if adding this candidate would exceed width.
		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth

		if i == len(matches)-1 {
			break
		}
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Functions are displayed with a "()" suffix.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		ch := string(r)
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(ch))
		} else {
			b.WriteString(baseStyle.Render(ch))
		}
	}

	if strings.HasPrefix(match.Str, "@") {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}

// formatPreview renders a single-line preview of a parameter value.
func formatPreview(v any, limit int) string {
	s := strings.ReplaceAll(lang.FormatResult(v, true), "\n", " ")
	if utf8.RuneCountInString(s) > limit {
		r := []rune(s)

		return string(r[:limit-3]) + "..."
	}

	return s
}
