package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/atexpr/funcs"
	"github.com/ardnew/atexpr/lang"
)

// Funcs lists the registered functions, optionally filtered by a fuzzy
// pattern matched against each name.
type Funcs struct {
	Pattern string `arg:"" help:"Fuzzy filter applied to function names" name:"pattern" optional:""`
}

// Run executes the funcs command.
func (f *Funcs) Run(ctx context.Context) error {
	table := funcs.Builtins()

	for _, fn := range filterFuncs(slices.Collect(table.All()), f.Pattern) {
		_, err := fmt.Fprintf(outputFrom(ctx), "@%-16s %s\n",
			strings.ToUpper(fn.Name), fn.Usage)
		if err != nil {
			return ErrEncode.Wrap(err)
		}
	}

	return nil
}

// filterFuncs returns the entries of fns whose name fuzzily matches
// pattern, best match first. An empty pattern returns fns unchanged.
func filterFuncs(fns []*lang.Func, pattern string) []*lang.Func {
	pattern = strings.ToLower(strings.TrimPrefix(pattern, "@"))
	if pattern == "" {
		return fns
	}

	names := make([]string, len(fns))
	for i, fn := range fns {
		names[i] = fn.Name
	}

	matches := fuzzy.Find(pattern, names)
	out := make([]*lang.Func, len(matches))

	for i, m := range matches {
		out[i] = fns[m.Index]
	}

	return out
}
