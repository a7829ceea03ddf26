package cmd

import (
	"context"
	"fmt"

	"github.com/ardnew/atexpr/interp"
	"github.com/ardnew/atexpr/lang"
)

// Eval interprets a single template against the session parameters.
type Eval struct {
	Template string `arg:"" help:"Template to interpret, e.g. @CONCAT(@GV(A), '-x')" name:"template"`
	Flow     bool   `       help:"Render structured results in flow style"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
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

	result, err := in.Interpret(ctx, e.Template, params, opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(outputFrom(ctx), lang.FormatResult(result, e.Flow))
	if err != nil {
		return ErrEncode.Wrap(err)
	}

	return nil
}

// callOptions builds the per-call interpreter options of the session.
func (s *Session) callOptions(ctx context.Context, ignore bool) ([]interp.CallOption, error) {
	if ignore {
		return []interp.CallOption{interp.IgnoreGlobalValues()}, nil
	}

	groups, err := s.globals(ctx)
	if err != nil {
		return nil, err
	}

	if len(groups) == 0 {
		return nil, nil
	}

	return []interp.CallOption{interp.WithGlobalValues(groups...)}, nil
}
