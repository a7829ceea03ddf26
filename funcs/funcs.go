// Package funcs provides the standard function library for template
// evaluation.
//
// Every function receives its arguments already resolved and unquoted.
// Numeric arguments arrive as text and are coerced where a number is
// needed. Functions that consume the active values map declare the slot
// through [lang.Func.ValuesAt].
package funcs

import (
	"time"

	"github.com/ardnew/atexpr/lang"
)

type config struct {
	env map[string]string
	now func() time.Time
}

// Option configures [Builtins].
type Option func(*config)

// WithProcessEnv sets the process environment visible to env and the
// ENV_ lookup fallback, as a list of "KEY=VALUE" entries. A nil list uses
// [os.Environ].
func WithProcessEnv(env []string) Option {
	return func(c *config) { c.env = buildProcessEnvMap(env) }
}

// WithClock sets the time source used by the date functions.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// Builtins returns a new table with the full function library.
func Builtins(opts ...Option) *lang.Table {
	c := &config{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}

	if c.env == nil {
		c.env = buildProcessEnvMap(nil)
	}

	t := lang.NewTable()

	for _, group := range []func(*config) []*lang.Func{
		lookupFuncs,
		logicFuncs,
		mathFuncs,
		textFuncs,
		cryptoFuncs,
		uuidFuncs,
		dateFuncs,
		pathFuncs,
		systemFuncs,
		dataFuncs,
	} {
		t.Register(group(c)...)
	}

	return t
}

// alias registers copies of f under names.
func alias(f *lang.Func, names ...string) []*lang.Func {
	out := []*lang.Func{f}

	for _, name := range names {
		a := *f
		a.Name = name
		out = append(out, &a)
	}

	return out
}
