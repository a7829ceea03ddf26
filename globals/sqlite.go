package globals

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS global_groups (
	name     TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	entries  TEXT NOT NULL
);`

// SQLiteStore is a [Store] persisted in a SQLite database, so groups
// survive across processes.
type SQLiteStore struct {
	mu   sync.Mutex
	db   *sql.DB
	opts options
}

// OpenSQLite opens (creating if needed) the database at path.
// Use ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, ErrStore.Detail("open").Wrap(err).With(slog.String("path", path))
	}

	// A second connection to ":memory:" would see a different database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()

		return nil, ErrStore.Detail("schema").Wrap(err).With(slog.String("path", path))
	}

	s := &SQLiteStore{db: db, opts: makeOptions(opts...)}

	s.opts.logger.TraceContext(ctx, "opened global store", slog.String("path", path))

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Groups implements [Store].
func (s *SQLiteStore) Groups(ctx context.Context) ([]Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.groups(ctx)
}

func (s *SQLiteStore) groups(ctx context.Context) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, entries FROM global_groups ORDER BY position, name")
	if err != nil {
		return nil, ErrStore.Detail("query").Wrap(err)
	}
	defer rows.Close()

	var out []Group

	for rows.Next() {
		var (
			name string
			data string
		)

		if err := rows.Scan(&name, &data); err != nil {
			return nil, ErrStore.Detail("scan").Wrap(err)
		}

		var entries map[string]any
		if err := json.Unmarshal([]byte(data), &entries); err != nil {
			return nil, ErrStore.Detail("decode").Wrap(err).With(slog.String("group", name))
		}

		out = append(out, Group{Name: name, Entries: entries})
	}

	if err := rows.Err(); err != nil {
		return nil, ErrStore.Detail("query").Wrap(err)
	}

	return out, nil
}

// Set implements [Store].
func (s *SQLiteStore) Set(ctx context.Context, groups ...Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.replace(ctx, groups)
}

// Merge implements [Store].
func (s *SQLiteStore) Merge(ctx context.Context, groups ...Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.groups(ctx)
	if err != nil {
		return err
	}

	merged, err := mergeGroups(base, groups)
	if err != nil {
		return err
	}

	return s.replace(ctx, merged)
}

// replace rewrites the table with groups in a single transaction.
func (s *SQLiteStore) replace(ctx context.Context, groups []Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ErrStore.Detail("begin").Wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM global_groups"); err != nil {
		return ErrStore.Detail("delete").Wrap(err)
	}

	for i, g := range groups {
		entries := g.Entries
		if entries == nil {
			entries = map[string]any{}
		}

		data, err := json.Marshal(entries)
		if err != nil {
			return ErrStore.Detail("encode").Wrap(err).With(slog.String("group", g.Name))
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO global_groups (name, position, entries) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				position = excluded.position,
				entries = excluded.entries
		`, g.Name, i, string(data))
		if err != nil {
			return ErrStore.Detail("insert").Wrap(err).With(slog.String("group", g.Name))
		}
	}

	if err := tx.Commit(); err != nil {
		return ErrStore.Detail("commit").Wrap(err)
	}

	s.opts.logger.TraceContext(ctx, "stored globals", slog.Int("groups", len(groups)))

	return nil
}
