package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/atexpr/lang"
)

// Parse prints the token stream or syntax tree of a template without
// evaluating it.
type Parse struct {
	Template string `arg:"" help:"Template to parse" name:"template"`
	Tokens   bool   `       help:"Print tokens instead of the syntax tree" short:"t"`
}

// Run executes the parse command.
func (p *Parse) Run(ctx context.Context) error {
	s := sessionFrom(ctx)
	w := outputFrom(ctx)

	tokens, err := lang.Lex(p.Template, s.engine().Registry())
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "parse"))
	}

	if p.Tokens {
		err = lang.FormatTokens(w, tokens)
		if err != nil {
			return ErrEncode.Wrap(err)
		}

		return nil
	}

	nodes, err := lang.Parse(tokens)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "parse"))
	}

	err = lang.FormatTree(w, nodes)
	if err != nil {
		return ErrEncode.Wrap(err)
	}

	return nil
}
