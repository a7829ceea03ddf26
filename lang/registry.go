package lang

import (
	"context"
	"iter"
	"maps"
	"slices"
	"strings"
)

// Callable is the implementation of a registry function. Arguments arrive
// fully resolved and unquoted.
type Callable func(ctx context.Context, args []any) (any, error)

// Func is a registry entry.
type Func struct {
	Name string
	Call Callable

	// ValuesAt is the 1-based argument position that receives the active
	// values map. Zero disables injection. Missing arguments before that
	// position are passed as nil.
	ValuesAt int

	// Usage is a one-line signature shown by tooling.
	Usage string
}

// Registry resolves function names. Names are lowercase without the marker.
type Registry interface {
	Lookup(name string) (*Func, bool)
}

// Table is a map-backed [Registry]. A Table must not be modified once it
// is shared with an [Engine].
type Table struct {
	funcs map[string]*Func
}

// NewTable returns a Table containing fns.
func NewTable(fns ...*Func) *Table {
	t := &Table{funcs: make(map[string]*Func, len(fns))}
	t.Register(fns...)

	return t
}

// Register adds fns to the table, replacing entries with the same name.
func (t *Table) Register(fns ...*Func) {
	for _, f := range fns {
		t.funcs[strings.ToLower(f.Name)] = f
	}
}

// Alias registers f under each of the given names.
func (t *Table) Alias(f *Func, names ...string) {
	for _, name := range names {
		alias := *f
		alias.Name = strings.ToLower(name)
		t.funcs[alias.Name] = &alias
	}
}

// Lookup implements [Registry].
func (t *Table) Lookup(name string) (*Func, bool) {
	f, ok := t.funcs[strings.ToLower(name)]

	return f, ok
}

// Names returns the sorted function names.
func (t *Table) Names() []string {
	return slices.Sorted(maps.Keys(t.funcs))
}

// All iterates over the functions in name order.
func (t *Table) All() iter.Seq[*Func] {
	return func(yield func(*Func) bool) {
		for _, name := range t.Names() {
			if !yield(t.funcs[name]) {
				return
			}
		}
	}
}

// Len returns the number of registered names.
func (t *Table) Len() int { return len(t.funcs) }

// overlay layers per-evaluation definitions above a base registry.
type overlay struct {
	base  Registry
	local map[string]*Func
}

func (o *overlay) Lookup(name string) (*Func, bool) {
	if f, ok := o.local[name]; ok {
		return f, true
	}

	if o.base == nil {
		return nil, false
	}

	return o.base.Lookup(name)
}

func (o *overlay) define(f *Func) {
	if o.local == nil {
		o.local = make(map[string]*Func)
	}

	o.local[f.Name] = f
}
