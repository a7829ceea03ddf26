package funcs

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ardnew/atexpr/lang"
)

// Predefined errors (sentinel values).
var (
	ErrArgument  = lang.NewError("invalid argument")
	ErrAlgorithm = lang.NewError("unsupported algorithm")
	ErrDecrypt   = lang.NewError("decryption failed")
)

// arg returns the i-th argument, or nil when absent.
func arg(args []any, i int) any {
	if i < 0 || i >= len(args) {
		return nil
	}

	return args[i]
}

// text returns the i-th argument rendered as text.
func text(args []any, i int) string { return lang.Stringify(arg(args, i)) }

// textOr returns the i-th argument as text, or def when it is absent or
// empty.
func textOr(args []any, i int, def string) string {
	if s := text(args, i); s != "" {
		return s
	}

	return def
}

// toNumber coerces v to a float64.
func toNumber(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}

		return 0, nil
	}

	s := strings.TrimSpace(lang.Stringify(v))

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrArgument.Detail("not a number: " + strconv.Quote(s)).
			With(slog.String("value", s))
	}

	return f, nil
}

// isNumber reports whether v coerces to a number.
func isNumber(v any) bool {
	_, err := toNumber(v)

	return err == nil
}

// numbers coerces every argument to a float64.
func numbers(args []any) ([]float64, error) {
	out := make([]float64, len(args))

	for i, a := range args {
		f, err := toNumber(a)
		if err != nil {
			return nil, err
		}

		out[i] = f
	}

	return out, nil
}

// numberAt coerces the i-th argument, returning def when it is absent or
// empty.
func numberAt(args []any, i int, def float64) (float64, error) {
	if v := arg(args, i); v != nil && text(args, i) != "" {
		return toNumber(v)
	}

	return def, nil
}

// intAt is numberAt truncated to an int.
func intAt(args []any, i int, def int) (int, error) {
	f, err := numberAt(args, i, float64(def))
	if err != nil {
		return 0, err
	}

	return int(f), nil
}

// number returns f as an int64 when it is integral and representable,
// otherwise as a float64.
func number(f float64) any {
	if f == math.Trunc(f) && !math.IsInf(f, 0) &&
		f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}

	return f
}

// truthy reports whether v is boolean true or the literal text "true".
func truthy(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}

	s, ok := v.(string)

	return ok && s == "true"
}

// isEmpty reports whether v is nil or renders as empty text.
func isEmpty(v any) bool {
	return v == nil || lang.Stringify(v) == ""
}

// compare orders a and b numerically when both are numbers, otherwise as
// text.
func compare(a, b any) int {
	if x, err := toNumber(a); err == nil {
		if y, err := toNumber(b); err == nil {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(lang.Stringify(a), lang.Stringify(b))
}

func requireArgs(name string, args []any, n int) error {
	if len(args) < n {
		return ErrArgument.
			Detail(name + " requires " + strconv.Itoa(n) + " argument(s)").
			With(slog.Int("got", len(args)))
	}

	return nil
}
