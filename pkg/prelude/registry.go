// Package prelude provides the host functions bound in the lam global scope.
package prelude

import (
	"sort"

	"github.com/thomasrohde/lam/pkg/capabilities"
	"github.com/thomasrohde/lam/pkg/evaluator"
)

// Fn represents a prelude function.
type Fn struct {
	Name       string
	Capability string
	Usage      string // e.g. "puts(args...)"
	Summary    string
	Execute    evaluator.NativeFunc
}

// Registry holds registered prelude functions.
type Registry struct {
	fns map[string]*Fn
}

// NewRegistry creates a new empty prelude registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*Fn),
	}
}

// Register adds a prelude function to the registry.
func (r *Registry) Register(fn Fn) {
	r.fns[fn.Name] = &fn
}

// Get retrieves a prelude function by name.
func (r *Registry) Get(name string) *Fn {
	return r.fns[name]
}

// All returns all registered prelude functions.
func (r *Registry) All() map[string]*Fn {
	return r.fns
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Install defines every function the policy allows in env and returns the
// names it bound. A nil policy allows everything.
func (r *Registry) Install(env *evaluator.Env, policy *capabilities.Policy) []string {
	var bound []string
	for _, name := range r.Names() {
		fn := r.fns[name]
		if !policy.IsAllowed(fn.Capability) {
			continue
		}
		env.Define(fn.Name, evaluator.NewNative(fn.Name, fn.Execute))
		bound = append(bound, fn.Name)
	}
	return bound
}
