// Package evaluator implements the lam tree-walking evaluator.
package evaluator

import (
	"math"
	"slices"
	"strconv"

	"github.com/thomasrohde/lam/pkg/ast"
)

// Value is the interface for all lam runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	value() // sealed marker
}

// Number is an IEEE-754 double.
type Number struct {
	Value float64
}

func (Number) value() {}

// String holds arbitrary text.
type String struct {
	Value string
}

func (String) value() {}

// Bool represents a boolean value.
type Bool struct {
	Value bool
}

func (Bool) value() {}

// Closure is a lambda together with the environment it captured.
type Closure struct {
	Params []string
	Body   ast.Expr
	Env    *Env
}

func (Closure) value() {}

// NativeFunc is the signature of host functions. The evaluator is passed in
// so a native can call back into closures.
type NativeFunc func(ev *Evaluator, args []Value) (Value, error)

// Native is a host function bound in the global scope.
type Native struct {
	Name string
	Fn   NativeFunc
}

func (Native) value() {}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return Number{Value: n}
}

// NewString creates a string value.
func NewString(s string) Value {
	return String{Value: s}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// NewNative wraps a host function.
func NewNative(name string, fn NativeFunc) Value {
	return Native{Name: name, Fn: fn}
}

// False is the value of empty blocks, missing else branches and failed &&.
var False Value = Bool{Value: false}

// Truthy reports whether v selects the then-branch. Only the boolean false is
// falsy; 0 and "" are truthy.
func Truthy(v Value) bool {
	if b, ok := v.(Bool); ok {
		return b.Value
	}
	return true
}

// Equal compares two values structurally. Values of different kinds are
// unequal. Closures are equal when their parameters, bodies and captured
// bindings are; natives compare by name.
func Equal(a, b Value) bool {
	return equal(a, b, nil)
}

func equal(a, b Value, seen map[[2]*Env]bool) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && av.Value == bv.Value
	case String:
		bv, ok := b.(String)
		return ok && av.Value == bv.Value
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Value == bv.Value
	case Closure:
		bv, ok := b.(Closure)
		if !ok || !slices.Equal(av.Params, bv.Params) {
			return false
		}
		if av.Body != bv.Body && ast.Dump(av.Body) != ast.Dump(bv.Body) {
			return false
		}
		if seen == nil {
			seen = make(map[[2]*Env]bool)
		}
		return equalScopes(av.Env, bv.Env, seen)
	case Native:
		bv, ok := b.(Native)
		return ok && av.Name == bv.Name
	}
	return false
}

// TypeName returns the user-facing kind of v, as used in error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case Number:
		return "number"
	case String:
		return "string"
	case Bool:
		return "boolean"
	case Closure:
		return "closure"
	case Native:
		return "native function"
	default:
		return "unknown"
	}
}

// Format renders v the way print and the REPL show it.
func Format(v Value) string {
	switch val := v.(type) {
	case Number:
		return FormatNumber(val.Value)
	case String:
		return val.Value
	case Bool:
		return strconv.FormatBool(val.Value)
	case Closure:
		return "<closure>"
	case Native:
		return "<native " + val.Name + ">"
	case nil:
		return "<nil>"
	default:
		return "<unknown>"
	}
}

// FormatNumber prints n in shortest plain decimal form, never with an
// exponent: 3, 0.5, 1000000000000000000000.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
