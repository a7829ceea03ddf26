package lang

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Stringify renders a resolved value as template text.
//
// Numbers use the shortest representation that round-trips, nil renders
// empty, and structured values render as compact JSON.
func Stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	return string(data)
}

// FormatTokens writes one token per line as "offset kind value".
func FormatTokens(w io.Writer, tokens []Token) error {
	for _, tok := range tokens {
		_, err := fmt.Fprintf(w, "%4d %-10s %s\n",
			tok.Offset, tok.Kind, strconv.Quote(tok.String()))
		if err != nil {
			return err
		}
	}

	return nil
}

// FormatTree writes an indented outline of nodes.
func FormatTree(w io.Writer, nodes []Node) error {
	var b strings.Builder

	for _, n := range nodes {
		formatNode(&b, n, 0)
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func formatNode(b *strings.Builder, n Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))

	switch n := n.(type) {
	case Literal:
		b.WriteString(n.Token.Kind.String())
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(n.Token.Value))
		b.WriteByte('\n')

	case Call:
		b.WriteString("call ")
		b.WriteString(n.Name)
		b.WriteByte('\n')

		for _, arg := range n.Args {
			formatNode(b, arg, depth+1)
		}

	case Ident:
		b.WriteString("ident ")
		b.WriteString(n.Name)
		b.WriteByte('\n')

	case Define:
		b.WriteString("define ")
		b.WriteString(n.Name)
		b.WriteString("(" + strings.Join(n.Params, ", ") + ")\n")
		formatNode(b, n.Body, depth+1)
	}
}

// FormatResult renders a resolved value for display. Strings are printed
// verbatim; other values are rendered as YAML (flow style when flow is set).
func FormatResult(v any, flow bool) string {
	switch v := v.(type) {
	case string:
		return v
	case nil:
		return "null"
	}

	opts := []yaml.EncodeOption{yaml.Indent(2)}
	if flow {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalWithOptions(v, opts...)
	if err != nil {
		return Stringify(v)
	}

	return strings.TrimSuffix(string(data), "\n")
}
