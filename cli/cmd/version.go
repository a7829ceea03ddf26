package cmd

import (
	"context"
	"fmt"

	"github.com/ardnew/atexpr/pkg"
)

// Version prints the program version.
type Version struct{}

// Run executes the version command.
func (v *Version) Run(ctx context.Context) error {
	_, err := fmt.Fprintln(outputFrom(ctx), pkg.Name, pkg.Version())

	return err
}
