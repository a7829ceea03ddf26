package interp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"golang.org/x/sync/errgroup"

	"github.com/ardnew/atexpr/globals"
	"github.com/ardnew/atexpr/lang"
	"github.com/ardnew/atexpr/log"
)

// Interpreter resolves the expressions of nested documents.
// An Interpreter is safe for concurrent use.
type Interpreter struct {
	engine      *lang.Engine
	store       globals.Store
	logger      log.Logger
	concurrency int
	maxDepth    int
}

// Option configures an [Interpreter].
type Option func(*Interpreter)

// WithLogger sets the structured logger for trace-level debugging.
func WithLogger(logger log.Logger) Option {
	return func(in *Interpreter) { in.logger = logger }
}

// WithGlobals sets the process-wide store of global values.
func WithGlobals(store globals.Store) Option {
	return func(in *Interpreter) { in.store = store }
}

// WithConcurrency limits the number of siblings resolved at once within
// each sequence or mapping. Zero or a negative limit uses GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(in *Interpreter) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}

		in.concurrency = n
	}
}

// WithMaxDepth sets the maximum nesting depth of documents. Zero or a
// negative depth disables the limit.
func WithMaxDepth(depth int) Option {
	return func(in *Interpreter) { in.maxDepth = depth }
}

// New returns an Interpreter evaluating string leaves with engine.
func New(engine *lang.Engine, opts ...Option) *Interpreter {
	in := &Interpreter{
		engine:      engine,
		concurrency: runtime.GOMAXPROCS(0),
		maxDepth:    lang.DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(in)
	}

	return in
}

// Engine returns the engine used to evaluate string leaves.
func (in *Interpreter) Engine() *lang.Engine { return in.engine }

// Store returns the process-wide global store, or nil.
func (in *Interpreter) Store() globals.Store { return in.store }

type callOptions struct {
	globals       []globals.Group
	maxSize       int
	ignoreGlobals bool
}

// CallOption configures a single call to [Interpreter.Interpret].
type CallOption func(*callOptions)

// WithMaxSize returns documents whose JSON encoding is longer than n bytes
// unchanged. Zero disables the guard.
func WithMaxSize(n int) CallOption {
	return func(o *callOptions) { o.maxSize = n }
}

// IgnoreGlobalValues excludes every global value, process-wide and
// per-call, from the values map.
func IgnoreGlobalValues() CallOption {
	return func(o *callOptions) { o.ignoreGlobals = true }
}

// WithGlobalValues adds groups applied after the process-wide store.
func WithGlobalValues(groups ...globals.Group) CallOption {
	return func(o *callOptions) { o.globals = append(o.globals, groups...) }
}

// Interpret returns doc with every expression resolved.
//
// Strings are evaluated as templates. Sequences ([]any) and mappings
// (map[string]any, map[any]any and [yaml.MapSlice]) are rebuilt with each
// element, key and value interpreted. Any other value is returned as is.
//
// The values map seen by expressions holds the resolved params with the
// flattened global values assigned over them, so globals win on conflict.
func (in *Interpreter) Interpret(
	ctx context.Context,
	doc any,
	params *Params,
	opts ...CallOption,
) (any, error) {
	if in.engine == nil {
		return nil, ErrNoEngine
	}

	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}

	if co.maxSize > 0 {
		if n := size(doc); n > co.maxSize {
			in.logger.TraceContext(ctx, "document exceeds size limit",
				slog.Int("size", n),
				slog.Int("max_size", co.maxSize),
			)

			return doc, nil
		}
	}

	values, err := in.values(ctx, params, opts, co)
	if err != nil {
		return nil, err
	}

	w := &walker{in: in, params: params, values: values}

	return w.walk(ctx, doc, 0)
}

// values builds the values map for one call.
func (in *Interpreter) values(
	ctx context.Context,
	params *Params,
	opts []CallOption,
	co callOptions,
) (map[string]any, error) {
	var resolved map[string]any

	if !params.empty() {
		var err error

		resolved, err = params.resolve(ctx,
			func(ctx context.Context, raw map[string]any) (map[string]any, error) {
				return in.resolveParams(ctx, raw, opts)
			},
		)
		if err != nil {
			return nil, err
		}
	}

	if co.ignoreGlobals {
		return resolved, nil
	}

	var groups []globals.Group

	if in.store != nil {
		stored, err := in.store.Groups(ctx)
		if err != nil {
			return nil, err
		}

		groups = stored
	}

	groups = append(groups, co.globals...)
	if len(groups) == 0 {
		return resolved, nil
	}

	expanded, err := globals.Expand(ctx, in.engine, resolved, groups...)
	if err != nil {
		return nil, rewrap(params, "global values", err)
	}

	// Global values are assigned over the parameters.
	values := make(map[string]any, len(resolved)+len(expanded))
	maps.Copy(values, resolved)
	maps.Copy(values, expanded)

	in.logger.TraceContext(ctx, "merged global values",
		slog.Int("groups", len(groups)),
		slog.Int("values", len(values)),
	)

	return values, nil
}

// resolveParams interprets a parameter bag against itself.
func (in *Interpreter) resolveParams(
	ctx context.Context,
	raw map[string]any,
	opts []CallOption,
) (map[string]any, error) {
	out, err := in.Interpret(ctx, raw, nil, opts...)
	if err != nil {
		// The bag resolves without itself, so attach its identifiers here.
		var ie *InterpretError
		if errors.As(err, &ie) && ie.Chain == "" && ie.Process == "" {
			ie.Chain, ie.Process = NewParams(raw).ids()
		}

		return nil, err
	}

	m, ok := out.(map[string]any)
	if !ok {
		return nil, ErrParams.With(slog.String("type", fmt.Sprintf("%T", out)))
	}

	in.logger.TraceContext(ctx, "resolved parameters", slog.Int("count", len(m)))

	return m, nil
}

// size returns the length of the JSON encoding of doc. Ordered and
// non-string-keyed mappings are measured as JSON objects.
func size(doc any) int {
	data, err := json.Marshal(globals.Normalize(doc))
	if err != nil {
		return len(fmt.Sprint(doc))
	}

	return len(data)
}

// walker resolves one document against a fixed values map.
type walker struct {
	in     *Interpreter
	params *Params
	values map[string]any
}

func (w *walker) walk(ctx context.Context, doc any, depth int) (any, error) {
	switch v := doc.(type) {
	case string:
		return w.leaf(ctx, v)

	case []any:
		if err := w.enter(v, depth); err != nil {
			return nil, err
		}

		return w.sequence(ctx, v, depth)

	case map[string]any:
		if err := w.enter(v, depth); err != nil {
			return nil, err
		}

		return w.mapping(ctx, v, depth)

	case map[any]any:
		if err := w.enter(v, depth); err != nil {
			return nil, err
		}

		return w.anyMapping(ctx, v, depth)

	case yaml.MapSlice:
		if err := w.enter(v, depth); err != nil {
			return nil, err
		}

		return w.mapSlice(ctx, v, depth)

	default:
		return doc, nil
	}
}

// enter checks the nesting limit before descending into a container.
func (w *walker) enter(doc any, depth int) error {
	if w.in.maxDepth <= 0 || depth < w.in.maxDepth {
		return nil
	}

	return rewrap(w.params, preview(doc),
		lang.ErrMaxDepthExceeded.With(slog.Int("max_depth", w.in.maxDepth)))
}

// leaf evaluates a string with the walker's values map.
func (w *walker) leaf(ctx context.Context, s string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, rewrap(w.params, s, err)
	}

	out, err := w.in.engine.Interpret(ctx, s, w.values)
	if err != nil {
		return nil, rewrap(w.params, s, err)
	}

	return out, nil
}

// key evaluates a mapping key and renders the result as text.
func (w *walker) key(ctx context.Context, k string) (string, error) {
	out, err := w.leaf(ctx, k)
	if err != nil {
		return "", err
	}

	return lang.Stringify(out), nil
}

// fanOut runs fn for each index in [0, n) with bounded concurrency. The
// first error cancels the context passed to the others.
func (w *walker) fanOut(
	ctx context.Context,
	n int,
	fn func(ctx context.Context, i int) error,
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.in.concurrency)

	for i := range n {
		g.Go(func() error { return fn(gctx, i) })
	}

	return g.Wait()
}

func (w *walker) sequence(ctx context.Context, v []any, depth int) (any, error) {
	out := make([]any, len(v))

	err := w.fanOut(ctx, len(v), func(ctx context.Context, i int) error {
		r, err := w.walk(ctx, v[i], depth+1)
		out[i] = r

		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// mapping resolves keys and values as siblings. Keys are visited in sorted
// order, so when two keys resolve to the same text the greater original
// key wins.
func (w *walker) mapping(ctx context.Context, v map[string]any, depth int) (any, error) {
	keys := slices.Sorted(maps.Keys(v))
	newKeys := make([]string, len(keys))
	newVals := make([]any, len(keys))

	err := w.fanOut(ctx, 2*len(keys), func(ctx context.Context, i int) error {
		var err error

		k := keys[i/2]
		if i%2 == 0 {
			newKeys[i/2], err = w.key(ctx, k)
		} else {
			newVals[i/2], err = w.walk(ctx, v[k], depth+1)
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(keys))
	for i, k := range newKeys {
		out[k] = newVals[i]
	}

	return out, nil
}

// anyMapping resolves a mapping with arbitrary keys. Only string keys are
// interpreted.
func (w *walker) anyMapping(ctx context.Context, v map[any]any, depth int) (any, error) {
	keys := slices.SortedFunc(maps.Keys(v), func(a, b any) int {
		return strings.Compare(lang.Stringify(a), lang.Stringify(b))
	})
	newKeys := make([]any, len(keys))
	newVals := make([]any, len(keys))

	err := w.fanOut(ctx, 2*len(keys), func(ctx context.Context, i int) error {
		var err error

		k := keys[i/2]

		switch {
		case i%2 == 1:
			newVals[i/2], err = w.walk(ctx, v[k], depth+1)
		case isString(k):
			newKeys[i/2], err = w.key(ctx, k.(string))
		default:
			newKeys[i/2] = k
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	out := make(map[any]any, len(keys))
	for i, k := range newKeys {
		out[k] = newVals[i]
	}

	return out, nil
}

// mapSlice resolves an ordered YAML mapping, keeping its order.
func (w *walker) mapSlice(ctx context.Context, v yaml.MapSlice, depth int) (any, error) {
	out := make(yaml.MapSlice, len(v))

	err := w.fanOut(ctx, 2*len(v), func(ctx context.Context, i int) error {
		var err error

		item := v[i/2]

		switch {
		case i%2 == 1:
			out[i/2].Value, err = w.walk(ctx, item.Value, depth+1)
		case isString(item.Key):
			out[i/2].Key, err = w.key(ctx, item.Key.(string))
		default:
			out[i/2].Key = item.Key
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func isString(v any) bool {
	_, ok := v.(string)

	return ok
}

// preview renders a short description of doc for error messages.
func preview(doc any) string {
	const limit = 64

	s := lang.Stringify(doc)
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "..."
	}

	return s
}
