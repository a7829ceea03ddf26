// Package globals holds named groups of global values that are merged into
// the parameters of every interpretation.
//
// A group's entries flatten into the values map as "<group>_<entry>". An
// entry is either a raw value or a formatted mapping:
//
//	quoted: {format: text, value: [a, b], quotechar: "'", delimiter: ","}
//	config: {format: json, value: {url: "@GV('HOST')"}}
//
// Text entries join list elements, each wrapped in the quote character.
// JSON entries are serialized and then interpreted as a template.
package globals

import (
	"log/slog"

	"github.com/ardnew/atexpr/lang"
)

// Predefined errors (sentinel values).
var (
	ErrLoad   = lang.NewError("invalid global values")
	ErrExpand = lang.NewError("global value expansion failed")
	ErrStore  = lang.NewError("global store failure")
	ErrMerge  = lang.NewError("global merge failed")
)

// Format selects how an entry is flattened.
type Format string

const (
	FormatNone Format = ""
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Group is a named collection of entries.
type Group struct {
	Name    string
	Entries map[string]any
}

// Entry is the formatted form of an entry value.
type Entry struct {
	Format    Format
	Value     any
	QuoteChar string
	Delimiter string
}

// parseEntry recognizes formatted entries. Values without a known format
// are raw.
func parseEntry(v any) (Entry, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return Entry{}, false
	}

	format, _ := m["format"].(string)

	switch f := Format(format); f {
	case FormatText, FormatJSON:
		e := Entry{Format: f, Value: m["value"]}
		e.QuoteChar, _ = m["quotechar"].(string)
		e.Delimiter, _ = m["delimiter"].(string)

		return e, true
	}

	return Entry{}, false
}

// Key returns the flattened values key of an entry in group.
func Key(group, entry string) string {
	if group == "" {
		return entry
	}

	return group + "_" + entry
}

// LogValue implements slog.LogValuer.
func (g Group) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", g.Name),
		slog.Int("entries", len(g.Entries)),
	)
}

// clone copies groups and their entry maps.
func clone(groups []Group) []Group {
	out := make([]Group, len(groups))

	for i, g := range groups {
		entries := make(map[string]any, len(g.Entries))
		for k, v := range g.Entries {
			entries[k] = v
		}

		out[i] = Group{Name: g.Name, Entries: entries}
	}

	return out
}
