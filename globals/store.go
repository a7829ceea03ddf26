package globals

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/ardnew/atexpr/log"
)

// Store is a shared collection of groups consulted by every interpretation.
type Store interface {
	// Groups returns a snapshot of the stored groups in order.
	Groups(ctx context.Context) ([]Group, error)

	// Set replaces the stored groups.
	Set(ctx context.Context, groups ...Group) error

	// Merge applies each group's entries as a JSON merge patch (RFC 7386)
	// over the stored group with the same name, appending new groups.
	// A null entry removes the key.
	Merge(ctx context.Context, groups ...Group) error
}

type options struct {
	logger log.Logger
}

// Option configures a store.
type Option func(*options)

// WithLogger sets the structured logger for trace-level debugging.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func makeOptions(opts ...Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// MemoryStore is a [Store] held in process memory. It is safe for
// concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	groups []Group
	opts   options
}

// NewMemoryStore returns a store initialized with groups.
func NewMemoryStore(groups []Group, opts ...Option) *MemoryStore {
	return &MemoryStore{groups: clone(groups), opts: makeOptions(opts...)}
}

// Groups implements [Store].
func (s *MemoryStore) Groups(context.Context) ([]Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return clone(s.groups), nil
}

// Set implements [Store].
func (s *MemoryStore) Set(ctx context.Context, groups ...Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups = clone(groups)

	s.opts.logger.TraceContext(ctx, "globals set",
		slog.Int("groups", len(groups)),
	)

	return nil
}

// Merge implements [Store].
func (s *MemoryStore) Merge(ctx context.Context, groups ...Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, err := mergeGroups(s.groups, groups)
	if err != nil {
		return err
	}

	s.groups = merged

	s.opts.logger.TraceContext(ctx, "globals merged",
		slog.Int("patches", len(groups)),
		slog.Int("groups", len(merged)),
	)

	return nil
}

// mergeGroups returns base with every patch applied.
func mergeGroups(base, patches []Group) ([]Group, error) {
	out := clone(base)

	index := make(map[string]int, len(out))
	for i, g := range out {
		index[g.Name] = i
	}

	for _, p := range patches {
		i, ok := index[p.Name]
		if !ok {
			index[p.Name] = len(out)
			out = append(out, Group{Name: p.Name})
			i = len(out) - 1
		}

		entries, err := mergeEntries(out[i].Entries, p.Entries)
		if err != nil {
			return nil, ErrMerge.Detail(p.Name).Wrap(err).
				With(slog.String("group", p.Name))
		}

		out[i].Entries = entries
	}

	return out, nil
}

// mergeEntries applies patch to base as a JSON merge patch.
func mergeEntries(base, patch map[string]any) (map[string]any, error) {
	if base == nil {
		base = map[string]any{}
	}

	doc, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}

	if patch == nil {
		patch = map[string]any{}
	}

	p, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}

	merged, err := jsonpatch.MergePatch(doc, p)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, err
	}

	return out, nil
}
