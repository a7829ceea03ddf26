package funcs

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/ardnew/atexpr/lang"
)

// parsePath splits p into the components returned by pathparse.
func parsePath(p string) map[string]any {
	dir, base := path.Split(p)
	if dir != "/" {
		dir = strings.TrimSuffix(dir, "/")
	}

	root := ""
	if strings.HasPrefix(p, "/") {
		root = "/"
	}

	ext := path.Ext(base)
	if ext == base {
		ext = ""
	}

	return map[string]any{
		"root": root,
		"dir":  dir,
		"base": base,
		"ext":  ext,
		"name": strings.TrimSuffix(base, ext),
	}
}

// parseURL splits u into the components returned by urlparse.
func parseURL(u string) (map[string]any, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, ErrArgument.Detail("url").Wrap(err)
	}

	query := make(map[string]any, len(parsed.Query()))
	for k, v := range parsed.Query() {
		if len(v) == 1 {
			query[k] = v[0]
		} else {
			query[k] = anySlice(v)
		}
	}

	password, _ := parsed.User.Password()

	out := map[string]any{
		"protocol": parsed.Scheme,
		"host":     parsed.Host,
		"hostname": parsed.Hostname(),
		"port":     parsed.Port(),
		"pathname": parsed.Path,
		"search":   "",
		"hash":     "",
		"username": parsed.User.Username(),
		"password": password,
		"query":    query,
	}

	if parsed.RawQuery != "" {
		out["search"] = "?" + parsed.RawQuery
	}

	if parsed.Fragment != "" {
		out["hash"] = "#" + parsed.Fragment
	}

	return out, nil
}

func anySlice[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}

	return out
}

// field returns m, or the single component named by key when given.
func field(m map[string]any, key string) (any, error) {
	if key == "" {
		return m, nil
	}

	v, ok := m[key]
	if !ok {
		return nil, ErrArgument.Detail("unknown component " + key)
	}

	return v, nil
}

func pathFuncs(*config) []*lang.Func {
	return []*lang.Func{
		{
			Name:  "pathparse",
			Usage: "PATHPARSE(path, [component]) with root, dir, base, ext, name",
			Call: func(_ context.Context, args []any) (any, error) {
				return field(parsePath(text(args, 0)), text(args, 1))
			},
		},
		{
			Name:  "pathnormalize",
			Usage: "PATHNORMALIZE(path)",
			Call: func(_ context.Context, args []any) (any, error) {
				return path.Clean(text(args, 0)), nil
			},
		},
		{
			Name:  "pathjoin",
			Usage: "PATHJOIN(elem...)",
			Call: func(_ context.Context, args []any) (any, error) {
				elems := make([]string, len(args))
				for i := range args {
					elems[i] = text(args, i)
				}

				return path.Join(elems...), nil
			},
		},
		{
			Name:  "urlparse",
			Usage: "URLPARSE(url, [component]) with protocol, host, hostname, port, pathname, search, hash, username, password, query",
			Call: func(_ context.Context, args []any) (any, error) {
				m, err := parseURL(text(args, 0))
				if err != nil {
					return nil, err
				}

				return field(m, text(args, 1))
			},
		},
		{
			Name:  "pathprefix",
			Usage: "PATHPREFIX(list, item...) prepends items to a path list",
			Call: func(_ context.Context, args []any) (any, error) {
				items := make([]string, 0, len(args))
				for i := 1; i < len(args); i++ {
					items = append(items, text(args, i))
				}

				return prefixList(text(args, 0), items...), nil
			},
		},
	}
}
