package funcs

import (
	"context"
	"strings"

	"github.com/ardnew/atexpr/lang"
)

// envPrefix marks identifiers that fall back to the process environment.
const envPrefix = "ENV_"

// defaultQuote wraps looked-up strings unless the caller overrides it.
const defaultQuote = "'"

func lookupFuncs(c *config) []*lang.Func {
	var fns []*lang.Func

	fns = append(fns, alias(&lang.Func{
		Name:     "gv",
		ValuesAt: 3,
		Usage:    "GV(id, [quote=\"'\"]) returns a value wrapped in quote",
		Call: func(_ context.Context, args []any) (any, error) {
			v := c.value(args, 2, text(args, 0))

			if q := quoteArg(args, 1); q != "" {
				return q + lang.Stringify(v) + q, nil
			}

			return v, nil
		},
	}, "getvalue")...)

	fns = append(fns, alias(&lang.Func{
		Name:     "gvq",
		ValuesAt: 3,
		Usage:    "GVQ(id, [quote=\"'\"]) returns a value as quoted text",
		Call: func(_ context.Context, args []any) (any, error) {
			v := c.value(args, 2, text(args, 0))
			q := quoteArg(args, 1)

			return q + lang.Stringify(v) + q, nil
		},
	}, "getvaluequoted")...)

	fns = append(fns, alias(&lang.Func{
		Name:     "gvescape",
		ValuesAt: 2,
		Usage:    "GVESCAPE(id) returns a value with quotes and backslashes escaped",
		Call: func(_ context.Context, args []any) (any, error) {
			return escape(lang.Stringify(c.value(args, 1, text(args, 0)))), nil
		},
	}, "getvalueescape")...)

	fns = append(fns, alias(&lang.Func{
		Name:     "gvunescape",
		ValuesAt: 2,
		Usage:    "GVUNESCAPE(id) returns a value with escapes removed",
		Call: func(_ context.Context, args []any) (any, error) {
			return unescape(lang.Stringify(c.value(args, 1, text(args, 0)))), nil
		},
	}, "getvalueunescape")...)

	fns = append(fns, alias(&lang.Func{
		Name:  "genv",
		Usage: "GENV(name, [default]) returns a process environment variable",
		Call: func(_ context.Context, args []any) (any, error) {
			if v, ok := c.env[text(args, 0)]; ok {
				return v, nil
			}

			return text(args, 1), nil
		},
	}, "env")...)

	return fns
}

// lookup resolves id in the values map found at slot, falling back to the
// process environment for ENV_ identifiers.
func (c *config) lookup(args []any, slot int, id string) (any, bool) {
	values, _ := arg(args, slot).(map[string]any)
	if v, ok := values[id]; ok {
		return v, true
	}

	if name, ok := strings.CutPrefix(id, envPrefix); ok {
		v, ok := c.env[name]

		return v, ok
	}

	return nil, false
}

// value is lookup with a missing or null id resolved to empty text.
func (c *config) value(args []any, slot int, id string) any {
	v, ok := c.lookup(args, slot, id)
	if !ok || v == nil {
		return ""
	}

	return v
}

// quoteArg returns the quote argument at i. A missing argument selects the
// default quote and an explicit empty argument disables quoting.
func quoteArg(args []any, i int) string {
	v := arg(args, i)
	if v == nil {
		return defaultQuote
	}

	q := lang.Stringify(v)
	if q == `\'` {
		return "'"
	}

	return q
}

var (
	escaper   = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	unescaper = strings.NewReplacer(`\\`, `\`, `\'`, `'`, `\"`, `"`, `\n`, "\n", `\t`, "\t")
)

func escape(s string) string { return escaper.Replace(s) }

func unescape(s string) string { return unescaper.Replace(s) }
