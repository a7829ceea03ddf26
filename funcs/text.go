package funcs

import (
	"context"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/ardnew/atexpr/lang"
)

// str wraps a function of the first argument's text.
func str(name, usage string, fn func(string) string) *lang.Func {
	return &lang.Func{
		Name:  name,
		Usage: usage,
		Call: func(_ context.Context, args []any) (any, error) {
			return fn(text(args, 0)), nil
		},
	}
}

// trimmer wraps a trim function with an optional cutset argument.
func trimmer(name string, cut func(string, string) string, space func(string) string) *lang.Func {
	return &lang.Func{
		Name:  name,
		Usage: strings.ToUpper(name) + "(s, [cutset])",
		Call: func(_ context.Context, args []any) (any, error) {
			if cutset := text(args, 1); cutset != "" {
				return cut(text(args, 0), cutset), nil
			}

			return space(text(args, 0)), nil
		},
	}
}

// padder pads the first argument to a rune width.
func padder(name string, left bool) *lang.Func {
	return &lang.Func{
		Name:  name,
		Usage: strings.ToUpper(name) + "(s, width, [pad=\" \"])",
		Call: func(_ context.Context, args []any) (any, error) {
			s := text(args, 0)

			width, err := intAt(args, 1, 0)
			if err != nil {
				return nil, err
			}

			pad := textOr(args, 2, " ")

			n := width - utf8.RuneCountInString(s)
			if n <= 0 {
				return s, nil
			}

			fill := []rune(strings.Repeat(pad, n))[:n]
			if left {
				return string(fill) + s, nil
			}

			return s + string(fill), nil
		},
	}
}

func textFuncs(*config) []*lang.Func {
	return []*lang.Func{
		trimmer("trim", strings.Trim, strings.TrimSpace),
		trimmer("ltrim", strings.TrimLeft, func(s string) string {
			return strings.TrimLeft(s, " \t\r\n")
		}),
		trimmer("rtrim", strings.TrimRight, func(s string) string {
			return strings.TrimRight(s, " \t\r\n")
		}),
		padder("lpad", true),
		padder("rpad", false),
		str("upper", "UPPER(s)", strings.ToUpper),
		str("lower", "LOWER(s)", strings.ToLower),
		str("escape", `ESCAPE(s) backslash-escapes quotes`, escape),
		str("unescape", "UNESCAPE(s)", unescape),
		str("htmlescape", "HTMLESCAPE(s)", html.EscapeString),
		str("htmlunescape", "HTMLUNESCAPE(s)", html.UnescapeString),
		{
			Name:  "concat",
			Usage: "CONCAT(s...)",
			Call: func(_ context.Context, args []any) (any, error) {
				var b strings.Builder
				for i := range args {
					b.WriteString(text(args, i))
				}

				return b.String(), nil
			},
		},
		{
			Name:  "concatws",
			Usage: "CONCATWS(sep, s...) joins non-empty arguments with sep",
			Call: func(_ context.Context, args []any) (any, error) {
				parts := make([]string, 0, len(args))

				for i := 1; i < len(args); i++ {
					if s := text(args, i); s != "" {
						parts = append(parts, s)
					}
				}

				return strings.Join(parts, text(args, 0)), nil
			},
		},
		{
			Name:  "includes",
			Usage: "INCLUDES(s, substr)",
			Call: func(_ context.Context, args []any) (any, error) {
				return strings.Contains(text(args, 0), text(args, 1)), nil
			},
		},
		{
			Name:  "indexof",
			Usage: "INDEXOF(s, substr) returns the rune index or -1",
			Call: func(_ context.Context, args []any) (any, error) {
				s := text(args, 0)

				i := strings.Index(s, text(args, 1))
				if i < 0 {
					return int64(-1), nil
				}

				return int64(utf8.RuneCountInString(s[:i])), nil
			},
		},
		{
			Name:  "substr",
			Usage: "SUBSTR(s, start, [length]); a negative start counts from the end",
			Call: func(_ context.Context, args []any) (any, error) {
				r := []rune(text(args, 0))

				start, err := intAt(args, 1, 0)
				if err != nil {
					return nil, err
				}

				if start < 0 {
					start = max(len(r)+start, 0)
				}

				start = min(start, len(r))

				length, err := intAt(args, 2, len(r)-start)
				if err != nil {
					return nil, err
				}

				end := min(start+max(length, 0), len(r))

				return string(r[start:end]), nil
			},
		},
		{
			Name:  "length",
			Usage: "LENGTH(s) returns the number of characters or list elements",
			Call: func(_ context.Context, args []any) (any, error) {
				switch v := arg(args, 0).(type) {
				case []any:
					return int64(len(v)), nil
				case map[string]any:
					return int64(len(v)), nil
				}

				return int64(utf8.RuneCountInString(text(args, 0))), nil
			},
		},
		{
			Name:  "replace",
			Usage: "REPLACE(s, old, new, [count=all])",
			Call: func(_ context.Context, args []any) (any, error) {
				n, err := intAt(args, 3, -1)
				if err != nil {
					return nil, err
				}

				return strings.Replace(text(args, 0), text(args, 1), text(args, 2), n), nil
			},
		},
		{
			Name:  "charcode",
			Usage: "CHARCODE(s, [index=0]) returns the code point at index",
			Call: func(_ context.Context, args []any) (any, error) {
				r := []rune(text(args, 0))

				i, err := intAt(args, 1, 0)
				if err != nil {
					return nil, err
				}

				if i < 0 || i >= len(r) {
					return nil, ErrArgument.Detail("index out of range")
				}

				return int64(r[i]), nil
			},
		},
		{
			Name:  "quote",
			Usage: `QUOTE(s, [quote="'"])`,
			Call: func(_ context.Context, args []any) (any, error) {
				q := quoteArg(args, 1)

				return q + text(args, 0) + q, nil
			},
		},
	}
}
