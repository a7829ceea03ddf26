package globals

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/atexpr/lang"
)

// Evaluator interprets a template against a values map.
// [*lang.Engine] implements Evaluator.
type Evaluator interface {
	Interpret(ctx context.Context, source string, values map[string]any) (any, error)
}

// Expand flattens groups into a new map. JSON entries are interpreted by ev
// against values. Later groups overwrite earlier keys.
func Expand(
	ctx context.Context,
	ev Evaluator,
	values map[string]any,
	groups ...Group,
) (map[string]any, error) {
	out := make(map[string]any)

	for _, g := range groups {
		for _, name := range slices.Sorted(maps.Keys(g.Entries)) {
			key := Key(g.Name, name)

			v, err := expandEntry(ctx, ev, values, g.Entries[name])
			if err != nil {
				return nil, ErrExpand.Detail(key).Wrap(err).
					With(slog.String("group", g.Name), slog.String("entry", name))
			}

			out[key] = v
		}
	}

	return out, nil
}

func expandEntry(
	ctx context.Context,
	ev Evaluator,
	values map[string]any,
	raw any,
) (any, error) {
	e, ok := parseEntry(raw)
	if !ok {
		return raw, nil
	}

	switch e.Format {
	case FormatText:
		list, ok := e.Value.([]any)
		if !ok {
			return e.Value, nil
		}

		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = e.QuoteChar + lang.Stringify(item) + e.QuoteChar
		}

		return strings.Join(parts, e.Delimiter), nil

	case FormatJSON:
		source, err := marshalJSON(e.Value)
		if err != nil {
			return nil, err
		}

		if ev == nil {
			return source, nil
		}

		return ev.Interpret(ctx, source, values)
	}

	return raw, nil
}

// marshalJSON renders v as compact JSON without HTML escaping.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return "", err
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}
