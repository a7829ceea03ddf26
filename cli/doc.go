// Package cli contains the command line interface for atexpr.
//
// # Usage
//
// The default command interprets a YAML or JSON document read from a file
// or stdin, replacing every template string with its value:
//
//	atexpr -p params.yaml deploy.yaml
//	echo 'greeting: @UPPER(hello)' | atexpr
//
// Other commands evaluate a single template, inspect its tokens or syntax
// tree, list functions, manage the global store, and start a REPL:
//
//	atexpr eval '@JOIN(@SPLIT(a.b.c, .), -)'
//	atexpr parse --tokens '@LOWER(@GV(name))'
//	atexpr funcs json
//	atexpr --db globals.db globals set groups.yaml
//	atexpr repl
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user config directory.
// Flags are keyed by name, with hyphens or underscores, under a "config"
// mapping or at the top level:
//
//	config:
//	  log_level: debug
//	  params: [base.yaml]
//	  db: ~/.local/share/atexpr/globals.db
//
// The init command writes the current flag values to that file. Command-line
// flags override config file values.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output on terminals
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o atexpr .
//
// It adds --pprof-mode (allocs, block, clock, cpu, goroutine, heap, mem,
// mutex, thread, trace) and --pprof-dir (default ~/.cache/atexpr/pprof).
package cli
