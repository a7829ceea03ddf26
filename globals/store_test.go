package globals

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// stores returns a fresh instance of every Store implementation.
func stores(t *testing.T) map[string]Store {
	t.Helper()

	db, err := OpenSQLite(t.Context(), filepath.Join(t.TempDir(), "globals.db"))
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(nil),
		"sqlite": db,
	}
}

func mustGroups(t *testing.T, ctx context.Context, s Store) []Group {
	t.Helper()

	got, err := s.Groups(ctx)
	if err != nil {
		t.Fatalf("Groups error: %v", err)
	}

	return got
}

func TestStore_Set(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			want := []Group{
				{Name: "z", Entries: map[string]any{"k": "v"}},
				{Name: "a", Entries: map[string]any{"b": true}},
			}

			if err := s.Set(ctx, want...); err != nil {
				t.Fatalf("Set error: %v", err)
			}

			if diff := cmp.Diff(want, mustGroups(t, ctx, s)); diff != "" {
				t.Errorf("Groups mismatch (-want +got):\n%s", diff)
			}

			// Set replaces rather than merges.
			if err := s.Set(ctx, Group{Name: "a", Entries: map[string]any{}}); err != nil {
				t.Fatalf("Set error: %v", err)
			}

			want = []Group{{Name: "a", Entries: map[string]any{}}}
			if diff := cmp.Diff(want, mustGroups(t, ctx, s)); diff != "" {
				t.Errorf("Groups after reset mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_Merge(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			err := s.Set(ctx,
				Group{Name: "db", Entries: map[string]any{
					"host": "localhost",
					"user": "root",
					"opts": map[string]any{"ssl": false, "timeout": "5s"},
				}},
			)
			if err != nil {
				t.Fatalf("Set error: %v", err)
			}

			err = s.Merge(ctx,
				Group{Name: "db", Entries: map[string]any{
					"host": "db.internal",
					"user": nil,
					"opts": map[string]any{"ssl": true},
				}},
				Group{Name: "app", Entries: map[string]any{"name": "svc"}},
			)
			if err != nil {
				t.Fatalf("Merge error: %v", err)
			}

			want := []Group{
				{Name: "db", Entries: map[string]any{
					"host": "db.internal",
					"opts": map[string]any{"ssl": true, "timeout": "5s"},
				}},
				{Name: "app", Entries: map[string]any{"name": "svc"}},
			}

			if diff := cmp.Diff(want, mustGroups(t, ctx, s)); diff != "" {
				t.Errorf("Groups mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMemoryStore_Snapshot(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore([]Group{{Name: "g", Entries: map[string]any{"k": "v"}}})

	got := mustGroups(t, t.Context(), s)
	got[0].Entries["k"] = "changed"

	again := mustGroups(t, t.Context(), s)
	if again[0].Entries["k"] != "v" {
		t.Errorf("snapshot shares entries with the store: %v", again[0].Entries)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(nil)

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Go(func() {
			g := Group{Name: Key("g", string(rune('a'+i))), Entries: map[string]any{"i": i}}
			if err := s.Merge(t.Context(), g); err != nil {
				t.Errorf("Merge error: %v", err)
			}

			_, _ = s.Groups(t.Context())
		})
	}

	wg.Wait()

	if got := len(mustGroups(t, t.Context(), s)); got != 8 {
		t.Errorf("got %d groups, want 8", got)
	}
}

func TestSQLiteStore_Persists(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "globals.db")

	db, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}

	want := []Group{{Name: "g", Entries: map[string]any{"n": 2.5}}}
	if err := db.Set(ctx, want...); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	db, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db.Close()

	if diff := cmp.Diff(want, mustGroups(t, ctx, db)); diff != "" {
		t.Errorf("Groups mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStore_Closed(t *testing.T) {
	t.Parallel()

	db, err := OpenSQLite(t.Context(), ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}

	_ = db.Close()

	if _, err := db.Groups(t.Context()); !errors.Is(err, ErrStore) {
		t.Errorf("expected ErrStore, got %v", err)
	}
}
