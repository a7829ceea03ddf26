package cmd

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/atexpr/interp"
)

// Output formats of the run command.
const (
	outputYAML = "yaml"
	outputJSON = "json"
)

// Run interprets every string of a YAML or JSON document.
type Run struct {
	File          string `arg:"" help:"Document file or '-' for stdin" name:"file" default:"-"`
	MaxSize       int    `       help:"Leave documents whose JSON encoding exceeds this many bytes unchanged (0 disables)" default:"0"`
	IgnoreGlobals bool   `       help:"Exclude global values from the values map"`
	Output        string `       help:"Output format" enum:"yaml,json" default:"yaml" short:"o"`
	Diff          bool   `       help:"Print a line diff between input and output instead of the output"`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s := sessionFrom(ctx)

	src, err := openSource(ctx, r.File)
	if err != nil {
		return err
	}

	doc, err := decode(src)
	_ = src.Close()

	if err != nil {
		return err
	}

	in, closer, err := s.interpreter(ctx)
	if err != nil {
		return err
	}
	defer closeInto(&err, closer)

	params, err := s.params(ctx)
	if err != nil {
		return err
	}

	opts, err := s.callOptions(ctx, r.IgnoreGlobals)
	if err != nil {
		return err
	}

	if r.MaxSize > 0 {
		opts = append(opts, interp.WithMaxSize(r.MaxSize))
	}

	result, err := in.Interpret(ctx, doc, params, opts...)
	if err != nil {
		return err
	}

	out, err := r.encode(result)
	if err != nil {
		return err
	}

	w := outputFrom(ctx)

	if r.Diff {
		before, err := r.encode(doc)
		if err != nil {
			return err
		}

		return writeDiff(w, string(before), string(out), isTerminal(w))
	}

	_, err = w.Write(out)
	if err != nil {
		return ErrEncode.Wrap(err)
	}

	return nil
}

// encode renders v in the selected output format.
func (r *Run) encode(v any) ([]byte, error) {
	opts := []yaml.EncodeOption{yaml.Indent(2), yaml.IndentSequence(true)}
	if r.Output == outputJSON {
		opts = append(opts, yaml.JSON())
	}

	data, err := yaml.MarshalWithOptions(v, opts...)
	if err != nil {
		return nil, ErrEncode.Wrap(err).With(slog.String("format", r.Output))
	}

	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}

	return data, nil
}
