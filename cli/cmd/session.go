package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/atexpr/funcs"
	"github.com/ardnew/atexpr/globals"
	"github.com/ardnew/atexpr/interp"
	"github.com/ardnew/atexpr/lang"
	"github.com/ardnew/atexpr/log"
)

// Session holds the inputs shared by every command.
type Session struct {
	// Params lists parameter files merged in order into one bag.
	Params []string
	// Globals lists files of per-call global value groups.
	Globals []string
	// DB is the path of the SQLite process-wide global store.
	DB string
	// Concurrency limits siblings resolved at once.
	Concurrency int
	// MaxDepth limits call and document nesting.
	MaxDepth int
	Logger   log.Logger
}

type sessionKey struct{}

// WithSession returns a new context.Context containing s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func sessionFrom(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok && s != nil {
		return s
	}

	return &Session{Logger: log.Default()}
}

// engine returns an engine over the builtin functions.
func (s *Session) engine() *lang.Engine {
	opts := []lang.Option{lang.WithLogger(s.Logger)}
	if s.MaxDepth != 0 {
		opts = append(opts, lang.WithMaxDepth(s.MaxDepth))
	}

	return lang.New(funcs.Builtins(), opts...)
}

// store opens the process-wide store, or returns nil when no database is
// configured. The returned close function is never nil.
func (s *Session) store(ctx context.Context) (*globals.SQLiteStore, func() error, error) {
	if s.DB == "" {
		return nil, func() error { return nil }, nil
	}

	db, err := globals.OpenSQLite(ctx, s.DB, globals.WithLogger(s.Logger))
	if err != nil {
		return nil, nil, err
	}

	return db, db.Close, nil
}

// closeInto runs closer and joins its error into *err.
func closeInto(err *error, closer func() error) {
	*err = errors.Join(*err, closer())
}

// interpreter returns an interpreter wired to the session's store.
func (s *Session) interpreter(ctx context.Context) (*interp.Interpreter, func() error, error) {
	db, closer, err := s.store(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := []interp.Option{
		interp.WithLogger(s.Logger),
		interp.WithConcurrency(s.Concurrency),
	}

	if s.MaxDepth != 0 {
		opts = append(opts, interp.WithMaxDepth(s.MaxDepth))
	}

	if db != nil {
		opts = append(opts, interp.WithGlobals(db))
	}

	return interp.New(s.engine(), opts...), closer, nil
}

// params decodes and merges the parameter files. Later files win.
func (s *Session) params(ctx context.Context) (*interp.Params, error) {
	srcs, err := openSources(ctx, s.Params)
	if err != nil {
		return nil, err
	}
	defer closeSources(srcs)

	values := map[string]any{}

	for _, src := range srcs {
		doc, err := decode(src)
		if err != nil {
			return nil, err
		}

		m, ok := globals.Normalize(doc).(map[string]any)
		if !ok && doc != nil {
			return nil, ErrParams.With(slog.String("path", src.name))
		}

		for k, v := range m {
			values[k] = v
		}
	}

	s.Logger.TraceContext(ctx, "loaded parameters",
		slog.Int("files", len(srcs)),
		slog.Int("count", len(values)),
	)

	return interp.NewParams(values), nil
}

// globals loads the per-call global value groups.
func (s *Session) globals(ctx context.Context) ([]globals.Group, error) {
	srcs, err := openSources(ctx, s.Globals)
	if err != nil {
		return nil, err
	}
	defer closeSources(srcs)

	var groups []globals.Group

	for _, src := range srcs {
		g, err := globals.Load(src)
		if err != nil {
			return nil, lang.WrapError(err).With(slog.String("path", src.name))
		}

		groups = append(groups, g...)
	}

	return groups, nil
}

// decode reads one YAML or JSON document, keeping mapping order.
func decode(src source) (any, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, ErrDecode.Wrap(err).With(slog.String("path", src.name))
	}

	var doc any

	err = yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap())
	if err != nil {
		return nil, ErrDecode.Wrap(err).With(slog.String("path", src.name))
	}

	return doc, nil
}
