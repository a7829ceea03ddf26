package globals

import (
	"bytes"
	"io"
	"log/slog"
	"math"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/atexpr/lang"
)

// Load decodes groups from YAML (or JSON) read from r.
//
// The document is either a mapping of group names to entries, or a
// sequence of such mappings. Group order follows the document.
//
//	- db:
//	    host: localhost
//	    ports: {format: text, value: [5432, 5433], delimiter: ","}
//	- app:
//	    dsn: {format: json, value: {host: "@GV('db_host')"}}
func Load(r io.Reader) ([]Group, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, lang.ErrReadInput.Wrap(err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc any
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, ErrLoad.Wrap(err)
	}

	var groups []Group

	switch doc := doc.(type) {
	case nil:
		return nil, nil

	case yaml.MapSlice:
		groups, err = appendGroups(groups, doc)
		if err != nil {
			return nil, err
		}

	case []any:
		for i, item := range doc {
			m, ok := item.(yaml.MapSlice)
			if !ok {
				return nil, ErrLoad.Detail("group list item is not a mapping").
					With(slog.Int("index", i))
			}

			groups, err = appendGroups(groups, m)
			if err != nil {
				return nil, err
			}
		}

	default:
		return nil, ErrLoad.Detail("document is not a mapping or sequence")
	}

	return groups, nil
}

func appendGroups(groups []Group, m yaml.MapSlice) ([]Group, error) {
	for _, item := range m {
		name := lang.Stringify(item.Key)

		entries := map[string]any{}

		switch v := item.Value.(type) {
		case nil:
		case yaml.MapSlice:
			for _, e := range v {
				entries[lang.Stringify(e.Key)] = Normalize(e.Value)
			}
		default:
			return nil, ErrLoad.Detail("group entries are not a mapping").
				With(slog.String("group", name))
		}

		groups = append(groups, Group{Name: name, Entries: entries})
	}

	return groups, nil
}

// Normalize converts decoded YAML into plain maps and slices. Ordered
// mappings become map[string]any and unsigned integers that fit become
// int64.
func Normalize(v any) any {
	switch v := v.(type) {
	case yaml.MapSlice:
		m := make(map[string]any, len(v))
		for _, item := range v {
			m[lang.Stringify(item.Key)] = Normalize(item.Value)
		}

		return m

	case map[string]any:
		m := make(map[string]any, len(v))
		for k, item := range v {
			m[k] = Normalize(item)
		}

		return m

	case map[any]any:
		m := make(map[string]any, len(v))
		for k, item := range v {
			m[lang.Stringify(k)] = Normalize(item)
		}

		return m

	case []any:
		s := make([]any, len(v))
		for i, item := range v {
			s[i] = Normalize(item)
		}

		return s

	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}
	}

	return v
}

// Dump writes groups to w as a YAML sequence that [Load] accepts.
func Dump(w io.Writer, groups []Group) error {
	doc := make([]yaml.MapSlice, len(groups))
	for i, g := range groups {
		doc[i] = yaml.MapSlice{{Key: g.Name, Value: g.Entries}}
	}

	data, err := yaml.MarshalWithOptions(doc, yaml.Indent(2))
	if err != nil {
		return ErrLoad.Wrap(err)
	}

	_, err = w.Write(data)

	return err
}
