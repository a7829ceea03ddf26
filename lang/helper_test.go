package lang

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
)

// testRegistry returns a small registry used across the package tests.
// The counter is incremented by every call of "tick".
func testRegistry(counter *atomic.Int64) *Table {
	return NewTable(
		&Func{Name: "add", Call: func(_ context.Context, args []any) (any, error) {
			var sum int64

			for _, a := range args {
				n, err := strconv.ParseInt(Stringify(a), 10, 64)
				if err != nil {
					return nil, err
				}

				sum += n
			}

			return sum, nil
		}},
		&Func{Name: "upper", Call: func(_ context.Context, args []any) (any, error) {
			if len(args) == 0 {
				return "", nil
			}

			return strings.ToUpper(Stringify(args[0])), nil
		}},
		&Func{Name: "args", Call: func(_ context.Context, args []any) (any, error) {
			return args, nil
		}},
		&Func{Name: "gv", ValuesAt: 3, Call: func(_ context.Context, args []any) (any, error) {
			values, _ := args[2].(map[string]any)
			v := values[Stringify(args[0])]

			if q, ok := args[1].(string); ok {
				return q + Stringify(v) + q, nil
			}

			return v, nil
		}},
		&Func{Name: "truth", Call: func(context.Context, []any) (any, error) {
			return true, nil
		}},
		&Func{Name: "fail", Call: func(context.Context, []any) (any, error) {
			return nil, errors.New("boom")
		}},
		&Func{Name: "tick", Call: func(context.Context, []any) (any, error) {
			if counter != nil {
				counter.Add(1)
			}

			return "tick", nil
		}},
	)
}
