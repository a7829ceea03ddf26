package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/atexpr/globals"
)

// Globals manages the process-wide global value store.
type Globals struct {
	Show  GlobalsShow  `cmd:"" default:"1" help:"Print the stored groups"`
	Set   GlobalsSet   `cmd:""             help:"Replace the stored groups with those of a file"`
	Merge GlobalsMerge `cmd:""             help:"Merge the groups of a file into the store"`
}

// GlobalsShow prints the stored groups as YAML.
type GlobalsShow struct{}

// Run executes the globals show command.
func (g *GlobalsShow) Run(ctx context.Context) error {
	return withStore(ctx, func(db *globals.SQLiteStore) error {
		groups, err := db.Groups(ctx)
		if err != nil {
			return err
		}

		err = globals.Dump(outputFrom(ctx), groups)
		if err != nil {
			return ErrEncode.Wrap(err)
		}

		return nil
	})
}

// GlobalsSet replaces the stored groups.
type GlobalsSet struct {
	File string `arg:"" help:"Groups file or '-' for stdin" name:"file"`
}

// Run executes the globals set command.
func (g *GlobalsSet) Run(ctx context.Context) error {
	groups, err := loadGroups(ctx, g.File)
	if err != nil {
		return err
	}

	return withStore(ctx, func(db *globals.SQLiteStore) error {
		err := db.Set(ctx, groups...)
		if err == nil {
			sessionFrom(ctx).Logger.DebugContext(ctx, "replaced global values",
				slog.Int("groups", len(groups)))
		}

		return err
	})
}

// GlobalsMerge merges groups into the store.
type GlobalsMerge struct {
	File string `arg:"" help:"Groups file or '-' for stdin" name:"file"`
}

// Run executes the globals merge command.
func (g *GlobalsMerge) Run(ctx context.Context) error {
	groups, err := loadGroups(ctx, g.File)
	if err != nil {
		return err
	}

	return withStore(ctx, func(db *globals.SQLiteStore) error {
		err := db.Merge(ctx, groups...)
		if err == nil {
			sessionFrom(ctx).Logger.DebugContext(ctx, "merged global values",
				slog.Int("groups", len(groups)))
		}

		return err
	})
}

// withStore runs fn against the session store, failing when none is set.
func withStore(ctx context.Context, fn func(*globals.SQLiteStore) error) (err error) {
	db, closer, err := sessionFrom(ctx).store(ctx)
	if err != nil {
		return err
	}
	defer closeInto(&err, closer)

	if db == nil {
		return ErrNoStore
	}

	return fn(db)
}

func loadGroups(ctx context.Context, path string) ([]globals.Group, error) {
	src, err := openSource(ctx, path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	groups, err := globals.Load(src)
	if err != nil {
		return nil, ErrDecode.Wrap(err).With(slog.String("path", src.name))
	}

	return groups, nil
}
