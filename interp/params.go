package interp

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ardnew/atexpr/lang"
)

// Identifier keys read from a parameter bag for error context.
const (
	ChainIDKey   = "CHAIN_ID"
	ProcessIDKey = "PROCESS_ID"
)

// Params is a parameter bag: the caller-supplied values made available to
// every expression of a document.
//
// A bag may contain expressions of its own. The first interpretation using
// the bag resolves it, with that call's options, and every later use reads
// the memoized result. A failed resolution is not memoized; the next use
// tries again. A Params is safe for concurrent use and must not be
// copied after first use.
type Params struct {
	raw map[string]any

	mu       sync.Mutex
	done     atomic.Bool
	resolved map[string]any
}

// NewParams returns a bag holding values. The map is not copied and must
// not be modified afterward.
func NewParams(values map[string]any) *Params {
	return &Params{raw: values}
}

// Raw returns the unresolved values of the bag.
func (p *Params) Raw() map[string]any {
	if p == nil {
		return nil
	}

	return p.raw
}

// Resolved returns the memoized resolution of the bag, and whether it has
// been resolved successfully.
func (p *Params) Resolved() (map[string]any, bool) {
	if p == nil || !p.done.Load() {
		return nil, false
	}

	return p.resolved, true
}

func (p *Params) empty() bool { return p == nil || len(p.raw) == 0 }

// resolve runs fn until it first succeeds and returns the memoized result.
func (p *Params) resolve(
	ctx context.Context,
	fn func(context.Context, map[string]any) (map[string]any, error),
) (map[string]any, error) {
	if p.done.Load() {
		return p.resolved, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done.Load() {
		return p.resolved, nil
	}

	resolved, err := fn(ctx, p.raw)
	if err != nil {
		return nil, err
	}

	p.resolved = resolved
	p.done.Store(true)

	return resolved, nil
}

// ids returns the chain and process identifiers of the bag.
func (p *Params) ids() (chain, process string) {
	if p == nil {
		return "", ""
	}

	return lang.Stringify(p.raw[ChainIDKey]), lang.Stringify(p.raw[ProcessIDKey])
}
