package funcs

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/ardnew/atexpr/lang"
)

// ErrNoEngine is returned by functions that interpret nested templates
// when called outside an evaluation.
var ErrNoEngine = lang.NewError("no engine in context")

// toList coerces v to a list. Text is decoded as a JSON array, falling
// back to comma-separated items.
func toList(v any) ([]any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case []string:
		return anySlice(v), nil
	}

	s := strings.TrimSpace(lang.Stringify(v))
	if s == "" {
		return nil, nil
	}

	if strings.HasPrefix(s, "[") {
		var list []any
		if err := json.Unmarshal([]byte(s), &list); err != nil {
			return nil, ErrArgument.Detail("list").Wrap(err)
		}

		return list, nil
	}

	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return anySlice(parts), nil
}

// itemValues builds the values map visible to one forof iteration.
func itemValues(outer map[string]any, item any, index int) map[string]any {
	values := make(map[string]any, len(outer)+2)
	maps.Copy(values, outer)

	if m, ok := item.(map[string]any); ok {
		maps.Copy(values, m)
	}

	values["item"] = item
	values["index"] = int64(index)

	return values
}

func dataFuncs(c *config) []*lang.Func {
	var fns []*lang.Func

	fns = append(fns, alias(&lang.Func{
		Name:  "stringify",
		Usage: "STRINGIFY(value, [indent]) renders value as JSON",
		Call: func(_ context.Context, args []any) (any, error) {
			var (
				data []byte
				err  error
			)

			if indent := text(args, 1); indent != "" {
				if n, convErr := strconv.Atoi(indent); convErr == nil {
					indent = strings.Repeat(" ", n)
				}

				data, err = json.MarshalIndent(arg(args, 0), "", indent)
			} else {
				data, err = json.Marshal(arg(args, 0))
			}

			if err != nil {
				return nil, ErrArgument.Wrap(err)
			}

			return string(data), nil
		},
	}, "jsonstringify")...)

	fns = append(fns,
		&lang.Func{
			Name:  "jsonparse",
			Usage: "JSONPARSE(text) decodes JSON",
			Call: func(_ context.Context, args []any) (any, error) {
				var v any
				if err := json.Unmarshal([]byte(text(args, 0)), &v); err != nil {
					return nil, ErrArgument.Detail("json").Wrap(err)
				}

				return v, nil
			},
		},
		&lang.Func{
			Name:     "forof",
			ValuesAt: 3,
			Usage:    "FOROF(list, template) interprets template once per element",
			Call: func(ctx context.Context, args []any) (any, error) {
				e, ok := lang.EngineFrom(ctx)
				if !ok {
					return nil, ErrNoEngine
				}

				list, err := toList(arg(args, 0))
				if err != nil {
					return nil, err
				}

				outer, _ := arg(args, 2).(map[string]any)
				source := text(args, 1)

				out := make([]any, len(list))

				for i, item := range list {
					v, err := e.Interpret(ctx, source, itemValues(outer, item, i))
					if err != nil {
						return nil, err
					}

					out[i] = v
				}

				return out, nil
			},
		},
		&lang.Func{
			Name:     "expr",
			ValuesAt: 2,
			Usage:    "EXPR(source) evaluates an expr-lang expression over the values",
			Call: func(_ context.Context, args []any) (any, error) {
				env := make(map[string]any)
				if values, ok := arg(args, 1).(map[string]any); ok {
					maps.Copy(env, values)
				}

				if _, ok := env["env"]; !ok {
					env["env"] = func(key string) string { return c.env[key] }
				}

				source := text(args, 0)

				program, err := expr.Compile(source, expr.Env(env))
				if err != nil {
					return nil, ErrArgument.Detail("expression").Wrap(err).
						With(slog.String("source", source))
				}

				return expr.Run(program, env)
			},
		},
	)

	return fns
}
