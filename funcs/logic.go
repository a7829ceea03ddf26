package funcs

import (
	"context"

	"github.com/ardnew/atexpr/lang"
)

func logicFuncs(*config) []*lang.Func {
	cmp := func(name, usage string, ok func(int) bool) *lang.Func {
		return &lang.Func{
			Name:  name,
			Usage: usage,
			Call: func(_ context.Context, args []any) (any, error) {
				if err := requireArgs(name, args, 2); err != nil {
					return nil, err
				}

				return ok(compare(args[0], args[1])), nil
			},
		}
	}

	return []*lang.Func{
		{
			Name:  "if",
			Usage: `IF(condition, then, [else]) selects by the literal condition "true"`,
			Call: func(_ context.Context, args []any) (any, error) {
				if truthy(arg(args, 0)) {
					return arg(args, 1), nil
				}

				return arg(args, 2), nil
			},
		},
		{
			Name:  "ifnull",
			Usage: "IFNULL(value, fallback) returns fallback when value is empty",
			Call: func(_ context.Context, args []any) (any, error) {
				if isEmpty(arg(args, 0)) {
					return arg(args, 1), nil
				}

				return args[0], nil
			},
		},
		{
			Name:  "not",
			Usage: "NOT(condition)",
			Call: func(_ context.Context, args []any) (any, error) {
				return !truthy(arg(args, 0)), nil
			},
		},
		{
			Name:  "and",
			Usage: "AND(condition...) is true when every condition is true",
			Call: func(_ context.Context, args []any) (any, error) {
				for _, a := range args {
					if !truthy(a) {
						return false, nil
					}
				}

				return len(args) > 0, nil
			},
		},
		{
			Name:  "or",
			Usage: "OR(condition...) is true when any condition is true",
			Call: func(_ context.Context, args []any) (any, error) {
				for _, a := range args {
					if truthy(a) {
						return true, nil
					}
				}

				return false, nil
			},
		},
		cmp("eq", "EQ(a, b)", func(c int) bool { return c == 0 }),
		cmp("ne", "NE(a, b)", func(c int) bool { return c != 0 }),
		cmp("gt", "GT(a, b)", func(c int) bool { return c > 0 }),
		cmp("gte", "GTE(a, b)", func(c int) bool { return c >= 0 }),
		cmp("lt", "LT(a, b)", func(c int) bool { return c < 0 }),
		cmp("lte", "LTE(a, b)", func(c int) bool { return c <= 0 }),
	}
}
