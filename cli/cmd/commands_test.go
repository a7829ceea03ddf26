package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/atexpr/interp"
	"github.com/ardnew/atexpr/log"
	"github.com/ardnew/atexpr/pkg"
)

// runner is any command.
type runner interface {
	Run(ctx context.Context) error
}

// execute runs cmd with session s and stdin, returning its output.
func execute(t *testing.T, s *Session, stdin string, cmd runner) (string, error) {
	t.Helper()

	var out bytes.Buffer

	ctx := WithSession(t.Context(), s)
	ctx = WithOutput(ctx, &out)
	ctx = WithInput(ctx, strings.NewReader(stdin))

	err := cmd.Run(ctx)

	return out.String(), err
}

func newSession(t *testing.T, params string) *Session {
	t.Helper()

	s := &Session{Logger: log.Logger{}}

	if params != "" {
		s.Params = []string{writeFile(t, t.TempDir(), "params.yaml", params)}
	}

	return s
}

func TestEval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		params   string
		template string
		flow     bool
		want     string
	}{
		{"text", "", "@UPPER('abc')", false, "ABC\n"},
		{"params", "NAME: world\n", "hello @GV(NAME, '')", false, "hello world\n"},
		{"number", "", "@ADD(1, 2)", false, "3\n"},
		{"flow list", "", `@JSONPARSE('["a","b"]')`, true, "[a, b]\n"},
		{"marker free", "", "plain text", false, "plain text\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := execute(t, newSession(t, tt.params), "",
				&Eval{Template: tt.template, Flow: tt.flow})
			if err != nil {
				t.Fatalf("Eval.Run() error: %v", err)
			}

			if got != tt.want {
				t.Errorf("Eval.Run() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEval_Error(t *testing.T) {
	t.Parallel()

	s := newSession(t, "CHAIN_ID: c-1\n")

	_, err := execute(t, s, "", &Eval{Template: "@NOSUCH(1)"})

	var ie *interp.InterpretError
	if !errors.As(err, &ie) || ie.Chain != "c-1" {
		t.Fatalf("Eval.Run() error = %v, want an InterpretError for chain c-1", err)
	}

	_, err = execute(t, newSession(t, "- not\n- a mapping\n"), "", &Eval{Template: "x"})
	if !errors.Is(err, ErrParams) {
		t.Errorf("Eval.Run() error = %v, want %v", err, ErrParams)
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	doc := "b: \"@UPPER('x')\"\na:\n  - \"@GV(N, '')\"\n  - 2\n"

	got, err := execute(t, newSession(t, "N: 1\n"), doc, &Run{File: "-", Output: outputYAML})
	if err != nil {
		t.Fatalf("Run.Run() error: %v", err)
	}

	if want := "b: X\na:\n  - 1\n  - 2\n"; got != want {
		t.Errorf("Run.Run() = %q, want %q", got, want)
	}

	got, err = execute(t, newSession(t, ""), `{"k": "@LOWER('A')"}`, &Run{File: "-", Output: outputJSON})
	if err != nil {
		t.Fatalf("Run.Run(json) error: %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal([]byte(got), &decoded); err != nil || decoded["k"] != "a" {
		t.Errorf("Run.Run(json) = %q (err %v), want k: a", got, err)
	}

	if !strings.HasPrefix(strings.TrimSpace(got), "{") {
		t.Errorf("Run.Run(json) = %q, want a JSON object", got)
	}
}

func TestRun_MaxSize(t *testing.T) {
	t.Parallel()

	doc := "k: \"@UPPER('x')\"\n"

	got, err := execute(t, newSession(t, ""), doc, &Run{File: "-", Output: outputYAML, MaxSize: 5})
	if err != nil {
		t.Fatalf("Run.Run() error: %v", err)
	}

	if want := "k: '@UPPER(''x'')'\n"; got != want && !strings.Contains(got, "@UPPER") {
		t.Errorf("Run.Run() = %q, want the document unchanged", got)
	}
}

func TestRun_Diff(t *testing.T) {
	t.Parallel()

	doc := "same: 1\nk: \"@UPPER('x')\"\n"

	got, err := execute(t, newSession(t, ""), doc, &Run{File: "-", Output: outputYAML, Diff: true})
	if err != nil {
		t.Fatalf("Run.Run() error: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 3 || lines[0] != "  same: 1" ||
		!strings.HasPrefix(lines[1], "- k:") || lines[2] != "+ k: X" {
		t.Errorf("Run.Run(diff) = %q", got)
	}
}

func TestRun_Globals(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := newSession(t, "")
	s.Globals = []string{writeFile(t, dir, "globals.yaml", "- ENV:\n    HOST: example.org\n")}

	doc := "host: \"@GV(ENV_HOST, '')\"\n"

	got, err := execute(t, s, doc, &Run{File: "-", Output: outputYAML})
	if err != nil {
		t.Fatalf("Run.Run() error: %v", err)
	}

	if want := "host: example.org\n"; got != want {
		t.Errorf("Run.Run() = %q, want %q", got, want)
	}

	got, err = execute(t, s, doc, &Run{File: "-", Output: outputYAML, IgnoreGlobals: true})
	if err != nil {
		t.Fatalf("Run.Run(ignore) error: %v", err)
	}

	if strings.Contains(got, "example.org") {
		t.Errorf("Run.Run(ignore) = %q, want globals excluded", got)
	}
}

func TestRun_DecodeError(t *testing.T) {
	t.Parallel()

	_, err := execute(t, newSession(t, ""), "k: [unclosed", &Run{File: "-", Output: outputYAML})
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Run.Run() error = %v, want %v", err, ErrDecode)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tree, err := execute(t, newSession(t, ""), "", &Parse{Template: "a @UPPER('b')"})
	if err != nil {
		t.Fatalf("Parse.Run() error: %v", err)
	}

	if !strings.Contains(tree, "upper") && !strings.Contains(tree, "UPPER") {
		t.Errorf("Parse.Run() tree = %q, want the call", tree)
	}

	tokens, err := execute(t, newSession(t, ""), "", &Parse{Template: "a @UPPER('b')", Tokens: true})
	if err != nil {
		t.Fatalf("Parse.Run(tokens) error: %v", err)
	}

	if n := strings.Count(tokens, "\n"); n < 4 {
		t.Errorf("Parse.Run(tokens) printed %d tokens, want at least 4:\n%s", n, tokens)
	}
}

func TestFuncs(t *testing.T) {
	t.Parallel()

	all, err := execute(t, newSession(t, ""), "", &Funcs{})
	if err != nil {
		t.Fatalf("Funcs.Run() error: %v", err)
	}

	filtered, err := execute(t, newSession(t, ""), "", &Funcs{Pattern: "@uuidval"})
	if err != nil {
		t.Fatalf("Funcs.Run(pattern) error: %v", err)
	}

	if !strings.Contains(all, "@CONCAT ") || !strings.Contains(filtered, "@UUIDVALIDATE") {
		t.Errorf("Funcs.Run() output missing entries:\n%s\n---\n%s", all, filtered)
	}

	if strings.Count(filtered, "\n") >= strings.Count(all, "\n") {
		t.Error("Funcs.Run(pattern) did not filter")
	}
}

func TestGlobals(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := newSession(t, "")
	s.DB = filepath.Join(dir, "globals.db")

	set := writeFile(t, dir, "set.yaml", "- ENV:\n    HOST: a\n    PORT: 80\n")
	merge := writeFile(t, dir, "merge.yaml", "- ENV:\n    PORT: null\n    USER: u\n- APP:\n    NAME: n\n")

	if _, err := execute(t, s, "", &GlobalsSet{File: set}); err != nil {
		t.Fatalf("GlobalsSet.Run() error: %v", err)
	}

	if _, err := execute(t, s, "", &GlobalsMerge{File: merge}); err != nil {
		t.Fatalf("GlobalsMerge.Run() error: %v", err)
	}

	got, err := execute(t, s, "", &GlobalsShow{})
	if err != nil {
		t.Fatalf("GlobalsShow.Run() error: %v", err)
	}

	var groups []map[string]map[string]any
	if err := yaml.Unmarshal([]byte(got), &groups); err != nil {
		t.Fatalf("GlobalsShow.Run() output is not YAML: %v\n%s", err, got)
	}

	want := []map[string]map[string]any{
		{"ENV": {"HOST": "a", "USER": "u"}},
		{"APP": {"NAME": "n"}},
	}

	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("stored groups mismatch (-want +got):\n%s", diff)
	}

	doc := "\"@GV(ENV_USER, '')-@GV(APP_NAME, '')\"\n"

	out, err := execute(t, s, doc, &Run{File: "-", Output: outputYAML})
	if err != nil {
		t.Fatalf("Run.Run() error: %v", err)
	}

	if want := "u-n\n"; out != want {
		t.Errorf("Run.Run() with store = %q, want %q", out, want)
	}
}

func TestGlobals_NoStore(t *testing.T) {
	t.Parallel()

	_, err := execute(t, newSession(t, ""), "", &GlobalsShow{})
	if !errors.Is(err, ErrNoStore) {
		t.Errorf("GlobalsShow.Run() error = %v, want %v", err, ErrNoStore)
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	got, err := execute(t, newSession(t, ""), "", &Version{})
	if err != nil {
		t.Fatalf("Version.Run() error: %v", err)
	}

	if diff := cmp.Diff(pkg.Name+" "+pkg.Version()+"\n", got); diff != "" {
		t.Errorf("Version.Run() mismatch (-want +got):\n%s", diff)
	}
}
