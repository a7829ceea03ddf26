package profile

import (
	"slices"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	got := New(WithMode("cpu"), WithDir("/tmp/p"), WithQuiet(true))
	want := Config{Mode: "cpu", Dir: "/tmp/p", Quiet: true}

	if got != want {
		t.Errorf("New() = %+v, want %+v", got, want)
	}
}

func TestStart_NoMode(t *testing.T) {
	t.Parallel()

	p := New(WithDir(t.TempDir())).Start()
	if _, ok := p.(ignore); !ok {
		t.Errorf("Start() = %T, want no-op profiler", p)
	}

	p.Stop()
}

func TestStart_UnknownMode(t *testing.T) {
	t.Parallel()

	if slices.Contains(slices.Collect(Modes()), "bogus") {
		t.Fatal("Modes() contains bogus mode")
	}

	p := New(WithMode("bogus")).Start()
	if _, ok := p.(ignore); !ok {
		t.Errorf("Start() = %T, want no-op profiler", p)
	}

	p.Stop()
}
