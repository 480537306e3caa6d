package gridconfig

import (
	"context"
	"fmt"
)

// HandlerFunc is the Go implementation behind one step's Handler name. It
// receives the step's own field handles, keyed by field name, so it can
// read and write their data objects through StepField's Set, Get and
// Remove.
type HandlerFunc func(ctx context.Context, fields map[string]*StepField) error

// Registry maps handler names to HandlerFuncs, the same role the
// teacher's registry.Registry plays for runner-lifecycle handler names:
// a grid file names a handler declaratively, and the binary embedding
// gridconfig supplies its Go implementation.
type Registry struct {
	handlers map[string]HandlerFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register adds fn under name, replacing any handler already registered
// under that name.
func (r *Registry) Register(name string, fn HandlerFunc) {
	r.handlers[name] = fn
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (HandlerFunc, error) {
	fn, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("gridconfig: no handler registered for %q", name)
	}
	return fn, nil
}
