package dispatch

import (
	"context"
	"fmt"
	"sort"

	"github.com/teemow/deskgate/internal/gateway"
)

// Capability performs one provider operation with validated arguments.
type Capability func(ctx context.Context, args map[string]any) (*gateway.ProviderResponse, error)

// Definition binds a tool name to its schema, its target capability, and the
// rule used to shape its results. Definitions are immutable after
// registration.
type Definition struct {
	Name        string
	Description string

	// Service and Operation label the backing provider call for logs and
	// metrics, e.g. "gmail" / "messages.search".
	Service   string
	Operation string

	Schema Schema

	// Idempotent marks capabilities that are safe to retry. Send and
	// create style capabilities are not.
	Idempotent bool

	Shape gateway.ShapeRule

	Call Capability
}

// Registry holds the process-wide tool set. It is built once at startup and
// never mutated afterwards.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry builds a registry from the given definitions. Duplicate names
// and definitions without a capability are rejected.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Definition, len(defs))}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("tool definition without a name")
		}
		if def.Call == nil {
			return nil, fmt.Errorf("tool %q has no capability", def.Name)
		}
		if _, exists := r.defs[def.Name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", def.Name)
		}
		r.defs[def.Name] = def
	}
	return r, nil
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (*Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
