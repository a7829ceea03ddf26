package funcs

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/ardnew/atexpr/lang"
)

// unary wraps a float function of one argument.
func unary(name, usage string, fn func(float64) float64) *lang.Func {
	return &lang.Func{
		Name:  name,
		Usage: usage,
		Call: func(_ context.Context, args []any) (any, error) {
			if err := requireArgs(name, args, 1); err != nil {
				return nil, err
			}

			x, err := toNumber(args[0])
			if err != nil {
				return nil, err
			}

			return number(fn(x)), nil
		},
	}
}

// fold reduces all arguments left to right.
func fold(name, usage string, fn func(acc, x float64) (float64, error)) *lang.Func {
	return &lang.Func{
		Name:  name,
		Usage: usage,
		Call: func(_ context.Context, args []any) (any, error) {
			if err := requireArgs(name, args, 1); err != nil {
				return nil, err
			}

			xs, err := numbers(args)
			if err != nil {
				return nil, err
			}

			acc := xs[0]
			for _, x := range xs[1:] {
				if acc, err = fn(acc, x); err != nil {
					return nil, err
				}
			}

			return number(acc), nil
		},
	}
}

func mathFuncs(*config) []*lang.Func {
	divisor := func(x float64) error {
		if x == 0 {
			return ErrArgument.Detail("division by zero")
		}

		return nil
	}

	return []*lang.Func{
		unary("sin", "SIN(x)", math.Sin),
		unary("cos", "COS(x)", math.Cos),
		unary("tan", "TAN(x)", math.Tan),
		unary("asin", "ASIN(x)", math.Asin),
		unary("acos", "ACOS(x)", math.Acos),
		unary("atan", "ATAN(x)", math.Atan),
		unary("abs", "ABS(x)", math.Abs),
		unary("ceil", "CEIL(x)", math.Ceil),
		unary("floor", "FLOOR(x)", math.Floor),
		unary("exp", "EXP(x)", math.Exp),
		unary("sqrt", "SQRT(x)", math.Sqrt),
		{
			Name:  "round",
			Usage: "ROUND(x, [digits=0])",
			Call: func(_ context.Context, args []any) (any, error) {
				x, err := numberAt(args, 0, 0)
				if err != nil {
					return nil, err
				}

				digits, err := intAt(args, 1, 0)
				if err != nil {
					return nil, err
				}

				scale := math.Pow(10, float64(digits))

				return number(math.Round(x*scale) / scale), nil
			},
		},
		{
			Name:  "log",
			Usage: "LOG(x, [base=e])",
			Call: func(_ context.Context, args []any) (any, error) {
				x, err := numberAt(args, 0, 0)
				if err != nil {
					return nil, err
				}

				base, err := numberAt(args, 1, math.E)
				if err != nil {
					return nil, err
				}

				switch base {
				case 2:
					return number(math.Log2(x)), nil
				case 10:
					return number(math.Log10(x)), nil
				case math.E:
					return number(math.Log(x)), nil
				}

				return number(math.Log(x) / math.Log(base)), nil
			},
		},
		{
			Name:  "pow",
			Usage: "POW(x, y)",
			Call: func(_ context.Context, args []any) (any, error) {
				if err := requireArgs("pow", args, 2); err != nil {
					return nil, err
				}

				xs, err := numbers(args[:2])
				if err != nil {
					return nil, err
				}

				return number(math.Pow(xs[0], xs[1])), nil
			},
		},
		{
			Name:  "random",
			Usage: "RANDOM([min, max]) returns a float in [0,1) or an integer in [min,max]",
			Call: func(_ context.Context, args []any) (any, error) {
				if len(args) < 2 {
					return rand.Float64(), nil
				}

				xs, err := numbers(args[:2])
				if err != nil {
					return nil, err
				}

				lo, hi := int64(xs[0]), int64(xs[1])
				if hi < lo {
					lo, hi = hi, lo
				}

				return lo + rand.Int64N(hi-lo+1), nil
			},
		},
		fold("max", "MAX(x...)", func(acc, x float64) (float64, error) {
			return math.Max(acc, x), nil
		}),
		fold("min", "MIN(x...)", func(acc, x float64) (float64, error) {
			return math.Min(acc, x), nil
		}),
		fold("add", "ADD(x...) returns the sum", func(acc, x float64) (float64, error) {
			return acc + x, nil
		}),
		fold("subtract", "SUBTRACT(x...) subtracts from the first argument", func(acc, x float64) (float64, error) {
			return acc - x, nil
		}),
		fold("multiply", "MULTIPLY(x...) returns the product", func(acc, x float64) (float64, error) {
			return acc * x, nil
		}),
		fold("divide", "DIVIDE(x...) divides the first argument", func(acc, x float64) (float64, error) {
			if err := divisor(x); err != nil {
				return 0, err
			}

			return acc / x, nil
		}),
		fold("modulus", "MODULUS(x, y)", func(acc, x float64) (float64, error) {
			if err := divisor(x); err != nil {
				return 0, err
			}

			return math.Mod(acc, x), nil
		}),
	}
}
