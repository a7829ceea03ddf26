// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Time formatting, caller information, level, and output format are applied
// at logger creation time using functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// Every level has a context-aware and a context-unaware variant. The
// context-unaware variants use [DefaultContextProvider], which returns
// [context.TODO] by default.
//
// Pretty output (the default) colorizes keys and values with
// [github.com/fatih/color] when the destination is a terminal, and renders
// plain text otherwise.
//
// A package-level logger backs the free functions [Info], [Debug], and so
// on. Reconfigure it with [Config].
package log
