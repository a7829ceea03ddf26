package lang

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type tok struct {
	Kind  Kind
	Value string
}

func kinds(tokens []Token) []tok {
	out := make([]tok, len(tokens))
	for i, t := range tokens {
		out[i] = tok{t.Kind, t.Value}
	}

	return out
}

func TestLex(t *testing.T) {
	t.Parallel()

	reg := testRegistry(nil)

	tests := []struct {
		name  string
		input string
		want  []tok
	}{
		{
			name:  "plain text",
			input: "hello",
			want:  []tok{{KindString, "hello"}, {KindEnd, ""}},
		},
		{
			name:  "empty input",
			input: "",
			want:  []tok{{KindString, ""}, {KindEnd, ""}},
		},
		{
			name:  "text and call",
			input: "Total: @ADD(1,2)",
			want: []tok{
				{KindString, "Total:"},
				{KindWhitespace, " "},
				{KindIdentifier, "@ADD"},
				{KindOperator, "("},
				{KindNumber, "1"},
				{KindOperator, ","},
				{KindNumber, "2"},
				{KindOperator, ")"},
				{KindEnd, ""},
			},
		},
		{
			name:  "comma between quotes is text",
			input: "@upper('a','b')",
			want: []tok{
				{KindIdentifier, "@upper"},
				{KindOperator, "("},
				{KindString, "'a','b'"},
				{KindOperator, ")"},
				{KindEnd, ""},
			},
		},
		{
			name:  "comma followed by space separates",
			input: "@upper('a', 'b')",
			want: []tok{
				{KindIdentifier, "@upper"},
				{KindOperator, "("},
				{KindString, "'a'"},
				{KindOperator, ","},
				{KindWhitespace, " "},
				{KindString, "'b'"},
				{KindOperator, ")"},
				{KindEnd, ""},
			},
		},
		{
			name:  "quoted run spans separators",
			input: "'a (b), c@d 1'",
			want:  []tok{{KindString, "'a (b), c@d 1'"}, {KindEnd, ""}},
		},
		{
			name:  "unknown marker run is text",
			input: "user@example.com",
			want: []tok{
				{KindString, "user"},
				{KindString, "@example.com"},
				{KindEnd, ""},
			},
		},
		{
			name:  "unknown marker run before paren is identifier",
			input: "@nope()",
			want: []tok{
				{KindIdentifier, "@nope"},
				{KindOperator, "("},
				{KindOperator, ")"},
				{KindEnd, ""},
			},
		},
		{
			name:  "number with fraction then text",
			input: "3.14x",
			want:  []tok{{KindNumber, "3.14"}, {KindString, "x"}, {KindEnd, ""}},
		},
		{
			name:  "whitespace run",
			input: "a \t\nb",
			want: []tok{
				{KindString, "a"},
				{KindWhitespace, " \t\n"},
				{KindString, "b"},
				{KindEnd, ""},
			},
		},
		{
			name:  "digits continue a marker run",
			input: "@f2a(1)",
			want: []tok{
				{KindIdentifier, "@f2a"},
				{KindOperator, "("},
				{KindNumber, "1"},
				{KindOperator, ")"},
				{KindEnd, ""},
			},
		},
		{
			name:  "marker before digits is text",
			input: "@2024",
			want:  []tok{{KindString, "@"}, {KindNumber, "2024"}, {KindEnd, ""}},
		},
		{
			name:  "lone marker",
			input: "@",
			want:  []tok{{KindString, "@"}, {KindEnd, ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Lex(tt.input, reg)
			if err != nil {
				t.Fatalf("lex error: %v", err)
			}

			if diff := cmp.Diff(tt.want, kinds(got), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Lex(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestLex_Offsets(t *testing.T) {
	tokens, err := Lex("é @ADD(10)", testRegistry(nil))
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}

	want := []int{0, 1, 2, 6, 7, 9, 10}
	for i, tok := range tokens {
		if tok.Offset != want[i] {
			t.Errorf("token %d (%q): offset %d, want %d", i, tok.Value, tok.Offset, want[i])
		}
	}
}

func TestLex_ControlCharacter(t *testing.T) {
	_, err := Lex("ab\x01c", testRegistry(nil))
	if err == nil {
		t.Fatal("expected lex error")
	}

	if !errors.Is(err, ErrLex) {
		t.Errorf("expected ErrLex, got %v", err)
	}

	if want := `unrecognized character '\x01' at offset 2`; err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestLex_ControlCharacterInsideQuotes(t *testing.T) {
	tokens, err := Lex("'a\x01b'", testRegistry(nil))
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}

	if tokens[0].Value != "'a\x01b'" {
		t.Errorf("expected quoted run to keep control character, got %q", tokens[0].Value)
	}
}

func BenchmarkLex(b *testing.B) {
	reg := testRegistry(nil)
	input := "Hello @UPPER('world'), total @ADD(1, @ADD(2, 3)) items"

	for b.Loop() {
		if _, err := Lex(input, reg); err != nil {
			b.Fatal(err)
		}
	}
}
