package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/atexpr/cli/cmd/repl"
	"github.com/ardnew/atexpr/lang"
)

// Repl starts an interactive session for writing templates.
type Repl struct {
	History string `help:"History file (defaults to the cache directory)" type:"path"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s := sessionFrom(ctx)

	in, closer, err := s.interpreter(ctx)
	if err != nil {
		return err
	}
	defer closeInto(&err, closer)

	params, err := s.params(ctx)
	if err != nil {
		return err
	}

	opts, err := s.callOptions(ctx, false)
	if err != nil {
		return err
	}

	history := r.History
	if history == "" {
		if ktx := kongContextFrom(ctx); ktx != nil {
			if dir, ok := ktx.Model.Vars()[CacheIdentifier]; ok {
				history = repl.HistoryPath(dir)
			}
		}
	}

	err = repl.Run(ctx, repl.Config{
		Interpreter: in,
		Params:      params,
		CallOptions: opts,
		HistoryFile: history,
		Logger:      s.Logger,
	})
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "repl"))
	}

	return nil
}
