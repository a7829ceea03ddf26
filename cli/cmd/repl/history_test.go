package repl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHistory_Persist(t *testing.T) {
	t.Parallel()

	path := HistoryPath(t.TempDir())
	h := NewHistory(path)

	for _, e := range []HistoryEntry{
		{"@UPPER(a)", modeEval},
		{"params", modeCtrl},
		{"@UPPER(a)", modeEval}, // duplicate of the last entry: skipped
		{"@LOWER(B)", modeEval},
		{"@UPPER(a)", modeEval}, // moved to the end
	} {
		if _, err := h.WriteWithMode(e.Line, e.Mode); err != nil {
			t.Fatalf("WriteWithMode(%q) error: %v", e.Line, err)
		}
	}

	want := []HistoryEntry{
		{"params", modeCtrl},
		{"@LOWER(B)", modeEval},
		{"@UPPER(a)", modeEval},
	}

	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if diff := cmp.Diff(want, loaded.Entries()); diff != "" {
		t.Errorf("loaded entries mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_LoadLegacyAndLimit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history")

	data := []byte("plain\n\nC:quit\nE:@GV(A)\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := []HistoryEntry{
		{"plain", modeEval},
		{"quit", modeCtrl},
		{"@GV(A)", modeEval},
	}

	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	if _, err := h.GetEntry(len(want)); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("GetEntry(out of range) error = %v, want %v", err, ErrOutOfBounds)
	}
}

func TestHistory_Memory(t *testing.T) {
	t.Parallel()

	h := NewHistory("")
	if err := h.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if _, err := h.WriteWithMode("  @UUID()  ", modeEval); err != nil {
		t.Fatalf("WriteWithMode() error: %v", err)
	}

	if _, err := h.WriteWithMode("   ", modeEval); err != nil {
		t.Fatalf("WriteWithMode(blank) error: %v", err)
	}

	entry, err := h.GetEntry(0)
	if err != nil || entry.Line != "@UUID()" || h.Len() != 1 {
		t.Errorf("memory history = %+v (len %d, err %v)", entry, h.Len(), err)
	}
}

func TestHistory_Missing(t *testing.T) {
	t.Parallel()

	h := NewHistory(filepath.Join(t.TempDir(), "absent"))
	if err := h.Load(); err != nil {
		t.Errorf("Load(missing) error: %v", err)
	}

	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}
