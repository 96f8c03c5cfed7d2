// Package transformers provides named value transforms applied during extraction.
//
// Two registries are used: content transforms (the "transform" key of a field
// rule, e.g. markdown) and transformer functions (the "transformerFunction"
// key, applied to the final value).
package transformers

import (
	"sort"
	"sync"

	"github.com/emonupg/essync/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.Transformers = (*Registry)(nil)

// Func transforms a single value.
type Func func(value any) any

// Registry maps transform names to functions.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]Func),
	}
}

// Register adds or replaces a transform.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Apply runs the named transform. ok is false when no transform has that name.
func (r *Registry) Apply(name string, value any) (any, bool) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()
	if !ok {
		return value, false
	}
	return fn(value), true
}

// Has returns true if a transform with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[name]
	return ok
}

// Names returns all registered transform names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
