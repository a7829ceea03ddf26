package lang

import (
	"context"
	"log/slog"
	"math"
	"strconv"
)

// constants seeds the evaluation environment.
var constants = map[string]any{
	"pi": math.Pi,
	"e":  math.E,
}

type engineKey struct{}

// EngineFrom returns the [Engine] evaluating the current call, allowing
// registry functions to interpret nested templates.
func EngineFrom(ctx context.Context) (*Engine, bool) {
	e, ok := ctx.Value(engineKey{}).(*Engine)

	return e, ok
}

type valuesKey struct{}

// ValuesFrom returns the values map of the evaluation in progress.
func ValuesFrom(ctx context.Context) map[string]any {
	v, _ := ctx.Value(valuesKey{}).(map[string]any)

	return v
}

// evalContext holds the state of one evaluation.
type evalContext struct {
	ctx      context.Context
	engine   *Engine
	values   map[string]any
	funcs    *overlay
	scopes   []map[string]any
	depth    int
	maxDepth int
}

// Evaluate resolves nodes against values and concatenates the results.
//
// A template whose only non-empty result is a single non-string value
// yields that value unchanged. Otherwise every result is rendered with
// [Stringify] and joined.
func (e *Engine) Evaluate(
	ctx context.Context,
	nodes []Node,
	values map[string]any,
) (any, error) {
	ctx = context.WithValue(ctx, engineKey{}, e)
	ctx = context.WithValue(ctx, valuesKey{}, values)

	ec := &evalContext{
		ctx:      ctx,
		engine:   e,
		values:   values,
		funcs:    &overlay{base: e.registry},
		maxDepth: e.opts.maxDepth,
	}

	results := make([]any, 0, len(nodes))

	for _, n := range nodes {
		v, err := ec.eval(n)
		if err != nil {
			return nil, err
		}

		results = append(results, v)
	}

	return concat(results), nil
}

func concat(results []any) any {
	var (
		native any
		count  int
	)

	for _, v := range results {
		if v == nil {
			continue
		}

		if s, ok := v.(string); ok && s == "" {
			continue
		}

		native = v
		count++
	}

	switch {
	case count == 0:
		for _, v := range results {
			if v != nil {
				return ""
			}
		}

		return nil

	case count == 1:
		return native

	default:
		var out []byte
		for _, v := range results {
			out = append(out, Stringify(v)...)
		}

		return string(out)
	}
}

func (ec *evalContext) eval(n Node) (any, error) {
	switch n := n.(type) {
	case Literal:
		return n.Token.Value, nil

	case Ident:
		return ec.lookup(n.Name)

	case Call:
		return ec.call(n)

	case Define:
		ec.define(n)

		return nil, nil

	default:
		return nil, ErrSyntax.Detail("unsupported node").
			With(slog.String("node", n.String()))
	}
}

func (ec *evalContext) lookup(name string) (any, error) {
	if n := len(ec.scopes); n > 0 {
		if v, ok := ec.scopes[n-1][name]; ok {
			return v, nil
		}
	}

	if v, ok := constants[name]; ok {
		return v, nil
	}

	return nil, ErrUndefined.Detail(strconv.Quote(name)).
		With(slog.String("identifier", name))
}

func (ec *evalContext) call(n Call) (any, error) {
	if err := ec.ctx.Err(); err != nil {
		return nil, err
	}

	ec.depth++
	defer func() { ec.depth-- }()

	if ec.maxDepth > 0 && ec.depth > ec.maxDepth {
		return nil, ErrMaxDepthExceeded.
			Detail("calling "+strconv.Quote(n.Name)).
			With(slog.Int("max_depth", ec.maxDepth))
	}

	args := make([]any, len(n.Args))

	for i, arg := range n.Args {
		v, err := ec.eval(arg)
		if err != nil {
			return nil, err
		}

		if s, ok := v.(string); ok {
			v = Unquote(s)
		}

		args[i] = v
	}

	fn, ok := ec.funcs.Lookup(n.Name)
	if !ok || fn.Call == nil {
		return nil, ErrFunctionNotFound.Detail(strconv.Quote(n.Name)).
			With(slog.String("function", n.Name), slog.Int("offset", n.Offset))
	}

	if fn.ValuesAt > 0 {
		args = injectValues(args, fn.ValuesAt-1, ec.values)
	}

	ec.engine.logger.TraceContext(ec.ctx, "call",
		slog.String("function", n.Name),
		slog.Int("args", len(args)),
	)

	v, err := fn.Call(ec.ctx, args)
	if err != nil {
		return nil, ErrCall.Detail(strconv.Quote(n.Name)).
			Wrap(err).
			With(slog.String("function", n.Name))
	}

	return v, nil
}

// injectValues stores values at slot, padding missing arguments with nil.
func injectValues(args []any, slot int, values map[string]any) []any {
	for len(args) <= slot {
		args = append(args, nil)
	}

	args[slot] = values

	return args
}

func (ec *evalContext) define(d Define) {
	ec.funcs.define(&Func{
		Name: d.Name,
		Call: func(_ context.Context, args []any) (any, error) {
			scope := make(map[string]any, len(d.Params))
			for i, name := range d.Params {
				if i < len(args) {
					scope[name] = args[i]
				} else {
					scope[name] = nil
				}
			}

			ec.scopes = append(ec.scopes, scope)
			defer func() { ec.scopes = ec.scopes[:len(ec.scopes)-1] }()

			return ec.eval(d.Body)
		},
	})
}

// Unquote strips one layer of matching single or double quotes.
func Unquote(s string) string {
	if n := len(s); n >= 2 && (s[0] == '\'' || s[0] == '"') && s[n-1] == s[0] {
		return s[1 : n-1]
	}

	return s
}
