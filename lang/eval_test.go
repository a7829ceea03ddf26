package lang

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInterpret(t *testing.T) {
	t.Parallel()

	e := New(testRegistry(nil))

	tests := []struct {
		name   string
		input  string
		values map[string]any
		want   any
	}{
		{name: "no marker", input: "hello", want: "hello"},
		{name: "empty", input: "", want: ""},
		{name: "single call keeps native type", input: "@ADD(1,2,3)", want: int64(6)},
		{name: "text forces string", input: "Total: @ADD(1,2)", want: "Total: 3"},
		{name: "adjacent calls concatenate", input: "@ADD(1,2)@ADD(3,4)", want: "37"},
		{name: "surrounding whitespace forces string", input: " @ADD(1,2) ", want: " 3 "},
		{name: "case insensitive name", input: "@uPpEr('x')", want: "X"},
		{name: "nested call", input: "@ADD(1, @ADD(2, 3))", want: int64(6)},
		{name: "boolean result", input: "@TRUTH()", want: true},
		{
			name:   "values injected at declared slot",
			input:  `@GV('NAME', "'")`,
			values: map[string]any{"NAME": "Ann"},
			want:   "'Ann'",
		},
		{
			name:   "values slot padded with nil",
			input:  "@GV('NAME')",
			values: map[string]any{"NAME": 7},
			want:   7,
		},
		{name: "unknown marker run is text", input: "mail user@example.com", want: "mail user@example.com"},
		{name: "stray parenthesis is text", input: "(x)", want: "(x)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := e.Interpret(t.Context(), tt.input, tt.values)
			if err != nil {
				t.Fatalf("Interpret(%q) error: %v", tt.input, err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Interpret(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestInterpret_QuoteStripping(t *testing.T) {
	e := New(testRegistry(nil))

	for _, input := range []string{`@ARGS('abc')`, `@ARGS("abc")`, `@ARGS(abc)`} {
		got, err := e.Interpret(t.Context(), input, nil)
		if err != nil {
			t.Fatalf("Interpret(%q) error: %v", input, err)
		}

		if diff := cmp.Diff([]any{"abc"}, got); diff != "" {
			t.Errorf("Interpret(%q) mismatch (-want +got):\n%s", input, diff)
		}
	}
}

func TestInterpret_ArgumentsAreText(t *testing.T) {
	got, err := New(testRegistry(nil)).Interpret(t.Context(), "@ARGS(1, 'two', @TRUTH())", nil)
	if err != nil {
		t.Fatalf("Interpret error: %v", err)
	}

	want := []any{"1", "two", true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpret_Idempotent(t *testing.T) {
	e := New(testRegistry(nil))

	first, err := e.Interpret(t.Context(), "Total: @ADD(1,2) @UPPER('ok')", nil)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}

	second, err := e.Interpret(t.Context(), Stringify(first), nil)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if first != second {
		t.Errorf("second pass changed output: %q -> %q", first, second)
	}
}

func TestInterpret_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		target error
		msg    string
	}{
		{
			name:   "unknown function",
			input:  "@UNKNOWNFN()",
			target: ErrFunctionNotFound,
			msg:    `function not found "unknownfn"`,
		},
		{
			name:   "unknown marker run before parenthesis",
			input:  "mail me@home(now)",
			target: ErrFunctionNotFound,
			msg:    `function not found "home"`,
		},
		{
			name:   "function failure",
			input:  "a @FAIL() b",
			target: ErrCall,
			msg:    `function call failed "fail": boom`,
		},
		{
			name:   "failure inside argument",
			input:  "@UPPER(@FAIL())",
			target: ErrCall,
			msg:    `function call failed "fail": boom`,
		},
		{
			name:   "argument type mismatch",
			input:  "@ADD(1, x)",
			target: ErrCall,
			msg:    `function call failed "add"`,
		},
		{
			name:   "syntax",
			input:  "@ADD(1",
			target: ErrSyntax,
			msg:    `expected ")"`,
		},
		{
			name:   "lex",
			input:  "\x00",
			target: ErrLex,
			msg:    "unrecognized character",
		},
	}

	e := New(testRegistry(nil))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := e.Interpret(t.Context(), tt.input, nil)
			if err == nil {
				t.Fatalf("expected error, got %v", got)
			}

			if got != nil {
				t.Errorf("expected no partial output, got %v", got)
			}

			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}

			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestInterpret_StopsAtFirstError(t *testing.T) {
	var calls atomic.Int64

	e := New(testRegistry(&calls))

	if _, err := e.Interpret(t.Context(), "@TICK() @FAIL() @TICK()", nil); err == nil {
		t.Fatal("expected error")
	}

	if n := calls.Load(); n != 1 {
		t.Errorf("expected evaluation to stop after the failing call, tick ran %d times", n)
	}
}

func TestInterpret_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := New(testRegistry(nil)).Interpret(ctx, "@ADD(1)", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInterpret_NoRegistry(t *testing.T) {
	_, err := New(nil).Interpret(t.Context(), "hello", nil)
	if !errors.Is(err, ErrNoRegistry) {
		t.Fatalf("expected ErrNoRegistry, got %v", err)
	}
}

func number(s string) Node {
	return Literal{Token: Token{Kind: KindNumber, Value: s}}
}

func TestEvaluate_Define(t *testing.T) {
	e := New(testRegistry(nil))

	nodes := []Node{
		Define{
			Name:   "double",
			Params: []string{"x"},
			Body:   Call{Name: "add", Args: []Node{Ident{Name: "x"}, Ident{Name: "x"}}},
		},
		Call{Name: "double", Args: []Node{number("21")}},
	}

	got, err := e.Evaluate(t.Context(), nodes, nil)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}

	if got != int64(42) {
		t.Errorf("expected 42, got %v (%T)", got, got)
	}

	// Definitions are local to one evaluation.
	_, err = e.Evaluate(t.Context(), nodes[1:], nil)
	if !errors.Is(err, ErrFunctionNotFound) {
		t.Errorf("expected definition to be gone, got %v", err)
	}
}

func TestEvaluate_DefineShadowsRegistry(t *testing.T) {
	nodes := []Node{
		Define{Name: "upper", Params: []string{"s"}, Body: Ident{Name: "s"}},
		Call{Name: "upper", Args: []Node{Literal{Token: Token{Kind: KindString, Value: "'low'"}}}},
	}

	got, err := New(testRegistry(nil)).Evaluate(t.Context(), nodes, nil)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}

	if got != "low" {
		t.Errorf("expected overlay definition to win, got %v", got)
	}
}

func TestEvaluate_Identifiers(t *testing.T) {
	e := New(testRegistry(nil))

	nodes := []Node{
		Define{Name: "const", Params: []string{"unused"}, Body: Ident{Name: "pi"}},
		Call{Name: "const"},
	}

	got, err := e.Evaluate(t.Context(), nodes, nil)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}

	if _, ok := got.(float64); !ok {
		t.Errorf("expected pi as float64, got %T", got)
	}

	nodes = []Node{
		Define{Name: "bad", Body: Ident{Name: "missing"}},
		Call{Name: "bad"},
	}

	_, err = e.Evaluate(t.Context(), nodes, nil)
	if !errors.Is(err, ErrUndefined) {
		t.Errorf("expected ErrUndefined, got %v", err)
	}

	if !strings.Contains(err.Error(), `undefined identifier "missing"`) {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestEvaluate_RecursionLimit(t *testing.T) {
	e := New(testRegistry(nil), WithMaxDepth(10))

	nodes := []Node{
		Define{Name: "loop", Body: Call{Name: "loop"}},
		Call{Name: "loop"},
	}

	_, err := e.Evaluate(t.Context(), nodes, nil)
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("expected ErrMaxDepthExceeded, got %v", err)
	}
}

func TestEngineFrom(t *testing.T) {
	reg := testRegistry(nil)
	reg.Register(&Func{Name: "nested", Call: func(ctx context.Context, args []any) (any, error) {
		e, ok := EngineFrom(ctx)
		if !ok {
			return nil, errors.New("no engine in context")
		}

		return e.Interpret(ctx, "@UPPER('"+Stringify(args[0])+"')", ValuesFrom(ctx))
	}})

	got, err := New(reg).Interpret(t.Context(), "@NESTED(inner)", nil)
	if err != nil {
		t.Fatalf("Interpret error: %v", err)
	}

	if got != "INNER" {
		t.Errorf("expected INNER, got %v", got)
	}
}
