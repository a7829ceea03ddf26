package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// cache stores compiled templates keyed by the xxh3 hash of their source.
type cache struct {
	entries sync.Map // uint64 -> *entry
}

// entry compiles its template exactly once.
type entry struct {
	once     sync.Once
	source   string
	template *Template
	err      error
}

func newCache() *cache { return &cache{} }

func (c *cache) load(ctx context.Context, e *Engine, source string) (*Template, error) {
	key := xxh3.HashString(source)

	value, hit := c.entries.LoadOrStore(key, &entry{source: source})

	ent, ok := value.(*entry)
	if !ok || ent.source != source {
		// Hash collision: compile without caching.
		e.logger.TraceContext(ctx, "cache collision",
			slog.String("source_hash", strconv.FormatUint(key, 16)),
		)

		return e.compile(ctx, source)
	}

	e.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(key, 16)),
		slog.Bool("cache_hit", hit),
	)

	ent.once.Do(func() {
		ent.template, ent.err = e.compile(ctx, source)
	})

	return ent.template, ent.err
}

// ClearCache removes all compiled templates.
func (e *Engine) ClearCache() {
	e.cache.entries.Clear()
}

// CacheLen returns the number of cached templates.
func (e *Engine) CacheLen() int {
	n := 0

	e.cache.entries.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}

// CompileReader reads a template from r and compiles it.
func (e *Engine) CompileReader(ctx context.Context, r io.Reader) (*Template, error) {
	// Pre-fetch the next chunk while the previous one is being copied.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	e.logger.TraceContext(ctx, "read template",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return e.Compile(ctx, string(data))
}
