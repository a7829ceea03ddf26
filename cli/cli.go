package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/atexpr/cli/cmd"
	"github.com/ardnew/atexpr/log"
	"github.com/ardnew/atexpr/pkg"
)

// CLI is the top-level command-line interface for atexpr.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Params       []string `help:"Parameter file(s) or '-' for stdin, merged in order"        name:"params"        short:"p" type:"path"`
	GlobalValues []string `help:"Per-call global value group file(s)"                         name:"global-values" short:"g" type:"path"`
	DB           string   `help:"SQLite database holding process-wide global values"          name:"db"                      type:"path"`
	Concurrency  int      `help:"Maximum sibling values resolved at once (0 uses GOMAXPROCS)" default:"0"`
	MaxDepth     int      `help:"Maximum call and document nesting depth"                     default:"100"`

	Init    cmd.Init    `cmd:"" help:"Initialize configuration file"`
	Eval    cmd.Eval    `cmd:"" help:"Interpret a single template"`
	Run     cmd.Run     `cmd:"" help:"Interpret every string of a YAML or JSON document" default:"withargs"`
	Parse   cmd.Parse   `cmd:"" help:"Print the tokens or syntax tree of a template"`
	Funcs   cmd.Funcs   `cmd:"" help:"List template functions"`
	Globals cmd.Globals `cmd:"" help:"Manage process-wide global values" name:"globals"`
	Repl    cmd.Repl    `cmd:"" help:"Start an interactive session"`
	Version cmd.Version `cmd:"" help:"Print version"`
}

// session builds the command session from the global flags.
func (c *CLI) session() *cmd.Session {
	return &cmd.Session{
		Params:      c.Params,
		Globals:     c.GlobalValues,
		DB:          c.DB,
		Concurrency: c.Concurrency,
		MaxDepth:    c.MaxDepth,
		Logger:      log.Default(),
	}
}

// Run executes the atexpr CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig + ".yaml")

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve(baseConfig), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSession(ctx, cli.session())

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
