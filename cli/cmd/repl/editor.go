package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/atexpr/globals"
	"github.com/ardnew/atexpr/log"
)

const defaultEditor = "vi"

// editParamsCommand implements [tea.ExecCommand] for the parameter
// edit-decode-retry loop. It writes the current parameters as YAML to a
// temp file, opens the user's editor, and decodes the result. On decode
// error the user is prompted to re-edit; declining exits the program.
type editParamsCommand struct {
	params  map[string]any
	ctxFunc func() context.Context
	edited  map[string]any
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editParamsCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editParamsCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editParamsCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-decode-retry loop. If the user declines to re-edit,
// it returns [ErrEditDeclined]. An emptied file leaves edited nil.
func (c *editParamsCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := encodeParams(c.params)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(os.TempDir(), "atexpr-params-*.yaml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath); err != nil {
			return err
		}

		data, err := os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		if strings.TrimSpace(string(data)) == "" {
			return nil
		}

		params, decodeErr := decodeParams(data)
		c.logger.TraceContext(
			ctx,
			"editor decode attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", decodeErr == nil),
		)

		if decodeErr == nil {
			c.edited = params

			return nil
		}

		fmt.Fprintf(c.stderr, "\nDecode error: %s\n", decodeErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		content = data
	}
}

// encodeParams renders params as a YAML mapping.
func encodeParams(params map[string]any) ([]byte, error) {
	if len(params) == 0 {
		return []byte("# KEY: value\n"), nil
	}

	return yaml.MarshalWithOptions(params, yaml.Indent(2))
}

// decodeParams decodes a YAML or JSON mapping of parameters.
func decodeParams(data []byte) (map[string]any, error) {
	var doc any

	err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap())
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return map[string]any{}, nil
	}

	m, ok := globals.Normalize(doc).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parameters must be a mapping, got %T", doc)
	}

	return m, nil
}

// runEditor launches the user's editor on the given file path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
