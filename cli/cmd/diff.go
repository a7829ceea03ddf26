package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// writeDiff writes a line-oriented diff of from and to. Unchanged lines are
// prefixed with two spaces, removed lines with "- " and added lines with
// "+ ".
func writeDiff(w io.Writer, from, to string, colored bool) error {
	dmp := diffpatch.New()

	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	del := color.New(color.FgRed)
	ins := color.New(color.FgGreen)

	if !colored {
		del.DisableColor()
		ins.DisableColor()
	} else {
		del.EnableColor()
		ins.EnableColor()
	}

	var sb strings.Builder

	for _, d := range diffs {
		for line := range strings.SplitSeq(strings.TrimSuffix(d.Text, "\n"), "\n") {
			switch d.Type {
			case diffpatch.DiffDelete:
				sb.WriteString(del.Sprint("- " + line))
			case diffpatch.DiffInsert:
				sb.WriteString(ins.Sprint("+ " + line))
			case diffpatch.DiffEqual:
				sb.WriteString("  " + line)
			}

			sb.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return ErrEncode.Wrap(err)
	}

	return nil
}

// isTerminal reports whether w is attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
