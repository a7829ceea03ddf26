package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/atexpr/globals"
)

// resolve returns a [kong.ConfigurationLoader] that reads YAML (or JSON)
// config files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve("config"), "/path/to/config.yaml")
//
// Flag values are read from the mapping under the given key, or from the
// top-level mapping when that key is absent. Keys may use hyphens or
// underscores:
//
//	config:
//	  log_level: debug
//	  log_format: text
//	  params: [base.yaml, local.yaml]
//	  db: ~/.local/share/atexpr/globals.db
//
// Command-line flags override config file values. A file that fails to
// decode is ignored.
func resolve(name string) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return config{}, nil
		}

		var doc any

		err = yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap())
		if err != nil {
			return config{}, nil
		}

		root, ok := globals.Normalize(doc).(map[string]any)
		if !ok {
			return config{}, nil
		}

		if sub, ok := root[name].(map[string]any); ok {
			root = sub
		}

		return makeConfig(root), nil
	}
}

// config implements [kong.Resolver] for YAML configs.
type config map[string]any

// makeConfig converts decoded values into the forms kong parses.
func makeConfig(m map[string]any) config {
	c := make(config, len(m))

	for k, v := range m {
		c[k] = flagText(v)
	}

	return c
}

// flagText renders numbers as strings, which kong requires for parsing, and
// sequences as string slices.
func flagText(v any) any {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)

	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)

	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = flagText(e)
		}

		return out

	default:
		return v
	}
}

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	for _, name := range []string{
		flag.Name,
		strings.ReplaceAll(flag.Name, "-", "_"),
	} {
		if value, ok := r[name]; ok {
			return value, nil
		}
	}

	return nil, nil
}
