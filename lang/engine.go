package lang

import (
	"context"
	"log/slog"

	"github.com/ardnew/atexpr/log"
)

// Engine lexes, parses, and evaluates templates against a [Registry].
// An Engine is safe for concurrent use.
type Engine struct {
	registry Registry
	cache    *cache
	logger   log.Logger
	opts     options
}

type options struct {
	maxDepth int
	noCache  bool
}

// Option configures an [Engine].
type Option func(*Engine)

// WithMaxDepth sets the maximum nesting depth of calls. Zero or a negative
// depth disables the limit.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		e.opts.maxDepth = depth
	}
}

// WithCache enables or disables the parsed template cache.
func WithCache(enable bool) Option {
	return func(e *Engine) {
		e.opts.noCache = !enable
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// applyDefaults sets default option values on an Engine.
func applyDefaults(e *Engine) {
	e.opts.maxDepth = DefaultMaxDepth
}

// applyOptions applies functional options to an Engine.
func applyOptions(e *Engine, opts ...Option) {
	for _, opt := range opts {
		opt(e)
	}
}

// New returns an Engine resolving functions through reg.
func New(reg Registry, opts ...Option) *Engine {
	e := &Engine{registry: reg, cache: newCache()}

	applyDefaults(e)
	applyOptions(e, opts...)

	return e
}

// Registry returns the registry the Engine was created with.
func (e *Engine) Registry() Registry { return e.registry }

// Logger returns the Engine's logger.
func (e *Engine) Logger() log.Logger { return e.logger }

// Compile lexes and parses source, reusing a cached result when available.
func (e *Engine) Compile(ctx context.Context, source string) (*Template, error) {
	if e.registry == nil {
		return nil, ErrNoRegistry
	}

	if e.opts.noCache {
		return e.compile(ctx, source)
	}

	return e.cache.load(ctx, e, source)
}

func (e *Engine) compile(ctx context.Context, source string) (*Template, error) {
	tokens, err := Lex(source, e.registry)
	if err != nil {
		return nil, err
	}

	nodes, err := parse(tokens, e.opts.maxDepth)
	if err != nil {
		return nil, err
	}

	e.logger.TraceContext(ctx, "compiled template",
		slog.Int("source_length", len(source)),
		slog.Int("token_count", len(tokens)),
		slog.Int("node_count", len(nodes)),
	)

	return &Template{Source: source, Nodes: nodes}, nil
}

// Interpret compiles source and evaluates it against values.
func (e *Engine) Interpret(
	ctx context.Context,
	source string,
	values map[string]any,
) (any, error) {
	t, err := e.Compile(ctx, source)
	if err != nil {
		return nil, err
	}

	return e.Evaluate(ctx, t.Nodes, values)
}

// Execute evaluates a compiled template against values.
func (e *Engine) Execute(
	ctx context.Context,
	t *Template,
	values map[string]any,
) (any, error) {
	return e.Evaluate(ctx, t.Nodes, values)
}
