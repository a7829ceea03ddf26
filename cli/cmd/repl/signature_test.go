package repl

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/atexpr/funcs"
)

func TestDetectFunctionCall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  functionCall
	}{
		{"plain text", "greeting", functionCall{}},
		{"open call", "@CONCAT(", functionCall{name: "concat", inCall: true}},
		{"first arg", "@CONCAT(a", functionCall{name: "concat", inCall: true}},
		{"second arg", "@CONCAT(a,", functionCall{name: "concat", argIndex: 1, inCall: true}},
		{"third arg", "@CONCAT('a', 'b', 'c'", functionCall{name: "concat", argIndex: 2, inCall: true}},
		{"lowercase name", "@gv(HO", functionCall{name: "gv", inCall: true}},
		{"nested closed", "@CONCAT(@GV(A),", functionCall{name: "concat", argIndex: 1, inCall: true}},
		{"nested open", "@CONCAT(x, @GV(", functionCall{name: "gv", inCall: true}},
		{"text before", "prefix @UPPER(", functionCall{name: "upper", inCall: true}},
		{"quoted comma", "@CONCAT('a,b'", functionCall{name: "concat", inCall: true}},
		{"quoted paren", "@CONCAT(')'", functionCall{name: "concat", inCall: true}},
		{"closed call", "@UPPER(a) ", functionCall{}},
		{"paren without marker", "(a, b", functionCall{}},
		{"name without marker", "UPPER(a", functionCall{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := detectFunctionCall(tt.input, len(tt.input))
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(functionCall{})); diff != "" {
				t.Errorf("detectFunctionCall(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestDetectFunctionCall_Cursor(t *testing.T) {
	t.Parallel()

	input := "@CONCAT(@UPPER(a), b)"

	got := detectFunctionCall(input, strings.Index(input, "a"))
	if got.name != "upper" || got.argIndex != 0 {
		t.Errorf("inside nested call = %+v, want upper/0", got)
	}

	got = detectFunctionCall(input, strings.Index(input, "b"))
	if got.name != "concat" || got.argIndex != 1 {
		t.Errorf("after nested call = %+v, want concat/1", got)
	}

	got = detectFunctionCall(input, 100)
	if got.inCall {
		t.Errorf("past end = %+v, want no call", got)
	}
}

func TestParseUsage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		usage     string
		signature string
		params    []string
	}{
		{"UUIDNIL()", "UUIDNIL()", nil},
		{"POW(x, y)", "POW(x, y)", []string{"x", "y"}},
		{
			"HASH(s, [alg=sha256], [digest=hex])",
			"HASH(s, [alg=sha256], [digest=hex])",
			[]string{"s", "[alg=sha256]", "[digest=hex]"},
		},
		{
			"CONCATWS(sep, s...) joins non-empty arguments with sep",
			"CONCATWS(sep, s...)",
			[]string{"sep", "s..."},
		},
		{
			"GETDATE([date=now], [format], [locale=en], [period, amount])",
			"GETDATE([date=now], [format], [locale=en], [period, amount])",
			[]string{"[date=now]", "[format]", "[locale=en]", "[period, amount]"},
		},
		{
			`GV(id, [quote="'"]) returns a value, quoting strings`,
			`GV(id, [quote="'"])`,
			[]string{"id", `[quote="'"]`},
		},
		{"NOPARENS", "NOPARENS", nil},
	}

	for _, tt := range tests {
		t.Run(tt.usage, func(t *testing.T) {
			t.Parallel()

			sig, params := parseUsage(tt.usage)
			if sig != tt.signature {
				t.Errorf("signature = %q, want %q", sig, tt.signature)
			}

			if diff := cmp.Diff(tt.params, params); diff != "" {
				t.Errorf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetSignature(t *testing.T) {
	t.Parallel()

	reg := funcs.Builtins()

	sig, params := getSignature(reg, "pow")
	if sig != "POW(x, y)" {
		t.Errorf("pow signature = %q", sig)
	}

	if diff := cmp.Diff([]string{"x", "y"}, params); diff != "" {
		t.Errorf("pow params mismatch (-want +got):\n%s", diff)
	}

	if sig, _ := getSignature(reg, "doesnotexist"); sig != "" {
		t.Errorf("unknown function signature = %q, want empty", sig)
	}

	if sig, _ := getSignature(nil, "pow"); sig != "" {
		t.Errorf("nil registry signature = %q, want empty", sig)
	}
}

func TestRenderSignatureHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		signature string
		params    []string
		arg       int
		want      string
	}{
		{"no params", "UUIDNIL()", nil, 0, "@UUIDNIL"},
		{"first param", "POW(x, y)", []string{"x", "y"}, 0, "@POW"},
		{"second param", "POW(x, y)", []string{"x", "y"}, 1, "y"},
		{"variadic", "CONCAT(s...)", []string{"s..."}, 3, "s..."},
		{"no parens", "ODD", nil, 0, "ODD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := renderSignatureHint(tt.signature, tt.params, tt.arg)
			if !strings.Contains(got, tt.want) {
				t.Errorf("renderSignatureHint() = %q, want it to contain %q", got, tt.want)
			}
		})
	}

	if got := renderSignatureHint("", nil, 0); got != "" {
		t.Errorf("empty signature rendered %q", got)
	}
}
