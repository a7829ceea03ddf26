// Package profile provides optional runtime profiling for the atexpr
// application.
//
// # Overview
//
// This package integrates [github.com/pkg/profile] to provide runtime profiling
// capabilities with conditional compilation support. Profiling is optional and
// must be enabled at build time using the "pprof" build tag.
//
// When built with profiling disabled (default), all operations are no-ops with
// zero runtime overhead.
//
// # Available Profiling Modes
//
// The following profiling modes are supported when built with the pprof tag:
//
//   - allocs:    Memory allocation profiling (all allocations)
//   - block:     Block (synchronization) profiling
//   - clock:     Wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: Goroutine profiling
//   - heap:      Heap memory profiling (live allocations)
//   - mem:       General memory profiling
//   - mutex:     Mutex contention profiling
//   - thread:    Thread creation profiling
//   - trace:     Execution trace profiling
//
// Use [Modes] to retrieve the list of supported modes programmatically.
//
// # Using File-Based Profiling
//
// File-based profiling writes profiling data to disk for later analysis. The
// profiler is configured with [New] and started with [Config.Start]:
//
//	p := profile.New(
//	    profile.WithMode("cpu"),
//	    profile.WithDir("/tmp/profiles"),
//	).Start()
//	defer p.Stop()
//
//	// Application code runs here with profiling enabled
//
// Profile files are written to the specified directory with names matching the
// profiling mode (e.g., cpu.pprof, mem.pprof).
//
// # Command-Line Usage
//
// The atexpr command supports profiling through command-line flags when built
// with the pprof tag:
//
//	# Enable CPU profiling (writes to default cache directory)
//	./atexpr --pprof-mode cpu
//
//	# Enable heap profiling with custom output directory
//	./atexpr --pprof-mode heap --pprof-dir ./profiles
//
//	# List available profiling modes
//	./atexpr -h
//
// The default output directory is:
//
//	$XDG_CACHE_HOME/atexpr/pprof   (Linux/Unix)
//	~/Library/Caches/atexpr/pprof  (macOS)
//	%LocalAppData%\atexpr\pprof    (Windows)
//
// # Analyzing Profile Data
//
//	go tool pprof ./atexpr ~/.cache/atexpr/pprof/cpu.pprof
//	go tool pprof -http=: -base=old.pprof new.pprof
//
// Interpreting a large document with --concurrency above 1 is the main case
// worth profiling; the block and mutex modes show contention between sibling
// resolutions.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
