package evaluator

import (
	"fmt"
	"sort"

	"github.com/benbjohnson/immutable"

	"github.com/thomasrohde/lam/pkg/diagnostics"
)

// Env is one lexical scope. Bindings live in a persistent map, so copying
// a scope header is O(1) and never aliases later writes.
type Env struct {
	vars   *immutable.Map[string, Value]
	parent *Env
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		vars:   immutable.NewMap[string, Value](nil),
		parent: parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// IsRoot reports whether e is the global scope.
func (e *Env) IsRoot() bool {
	return e.parent == nil
}

// Define binds name in this scope, shadowing any outer binding.
func (e *Env) Define(name string, val Value) {
	e.vars = e.vars.Set(name, val)
}

// Lookup finds name in this scope or any parent.
func (e *Env) Lookup(name string) (Value, bool) {
	for scope := e; scope != nil; scope = scope.parent {
		if val, ok := scope.vars.Get(name); ok {
			return val, true
		}
	}
	return nil, false
}

// Get is Lookup with the runtime error for unbound names.
func (e *Env) Get(name string) (Value, error) {
	if val, ok := e.Lookup(name); ok {
		return val, nil
	}
	return nil, &RuntimeError{
		Code:    diagnostics.EUnbound,
		Message: fmt.Sprintf("undefined variable %s", name),
	}
}

// Assign rebinds name in the nearest scope that defines it. When no scope
// does, the name is created only if e itself is the root.
func (e *Env) Assign(name string, val Value) (Value, error) {
	for scope := e; scope != nil; scope = scope.parent {
		if _, ok := scope.vars.Get(name); ok {
			scope.Define(name, val)
			return val, nil
		}
	}
	if !e.IsRoot() {
		return nil, &RuntimeError{
			Code:    diagnostics.EUnbound,
			Message: fmt.Sprintf("attempting to assign to undefined variable %s", name),
		}
	}
	e.Define(name, val)
	return val, nil
}

// Snapshot copies the chain of scope headers. The copies share the current
// maps, so the cost is the depth of the chain, and writes made afterwards on
// either side are invisible to the other.
func (e *Env) Snapshot() *Env {
	if e == nil {
		return nil
	}
	return &Env{vars: e.vars, parent: e.parent.Snapshot()}
}

// equalScopes compares two scope chains binding by binding. A pair already
// under comparison counts as equal, which ends the cycles shared capture
// can build.
func equalScopes(a, b *Env, seen map[[2]*Env]bool) bool {
	for ; a != nil && b != nil; a, b = a.parent, b.parent {
		if a == b {
			return true
		}
		key := [2]*Env{a, b}
		if seen[key] {
			return true
		}
		seen[key] = true

		if a.vars.Len() != b.vars.Len() {
			return false
		}
		itr := a.vars.Iterator()
		for !itr.Done() {
			name, av, _ := itr.Next()
			bv, ok := b.vars.Get(name)
			if !ok || !equal(av, bv, seen) {
				return false
			}
		}
	}
	return a == b
}

// Names returns every visible name, sorted.
func (e *Env) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for scope := e; scope != nil; scope = scope.parent {
		itr := scope.vars.Iterator()
		for !itr.Done() {
			name, _, _ := itr.Next()
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
