// Package validator implements static lints over lam programs.
package validator

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/lam/pkg/ast"
	"github.com/thomasrohde/lam/pkg/diagnostics"
)

// literalType names the runtime type of a literal expression, or "" if e is
// not a literal.
func literalType(e ast.Expr) string {
	switch e.(type) {
	case *ast.NumberLit:
		return "number"
	case *ast.StringLit:
		return "string"
	case *ast.BoolLit:
		return "boolean"
	}
	return ""
}

type validator struct {
	diags []diagnostics.Diagnostic
	bound map[string]bool
}

// Validate lints a parsed program. globals are the names the host binds
// before evaluation.
//
// Scoping is dynamic enough that the validator only knows which names are
// bound somewhere: a variable is reported when no assignment, parameter or
// global anywhere could supply it. Lints never affect evaluation.
func Validate(program *ast.Program, globals []string) []diagnostics.Diagnostic {
	v := &validator{bound: make(map[string]bool, len(globals))}
	for _, name := range globals {
		v.bound[name] = true
	}

	// First pass: collect every name the program can bind
	for _, expr := range program.Exprs {
		v.collect(expr)
	}

	// Second pass: lint each expression
	for _, expr := range program.Exprs {
		v.validateExpr(expr)
	}

	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, hint))
}

func (v *validator) collect(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Assign:
		if target, ok := e.Target.(*ast.Variable); ok {
			v.bound[target.Name] = true
		} else {
			v.collect(e.Target)
		}
		v.collect(e.Value)
	case *ast.Binary:
		v.collect(e.Left)
		v.collect(e.Right)
	case *ast.If:
		v.collect(e.Cond)
		v.collect(e.Then)
		if e.Else != nil {
			v.collect(e.Else)
		}
	case *ast.Block:
		for _, sub := range e.Exprs {
			v.collect(sub)
		}
	case *ast.Lambda:
		for _, param := range e.Params {
			v.bound[param] = true
		}
		v.collect(e.Body)
	case *ast.Call:
		v.collect(e.Callee)
		for _, arg := range e.Args {
			v.collect(arg)
		}
	}
}

func (v *validator) validateExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case nil, *ast.NumberLit, *ast.StringLit, *ast.BoolLit:
		// literals are always valid

	case *ast.Variable:
		if !v.bound[e.Name] {
			v.addDiag(diagnostics.EUnbound, fmt.Sprintf("undefined variable %s", e.Name), e.Span,
				"nothing in the program or the prelude binds this name")
		}

	case *ast.Assign:
		if _, ok := e.Target.(*ast.Variable); !ok {
			v.addDiag(diagnostics.EAssignTarget,
				fmt.Sprintf("cannot assign to %s", strings.ToLower(e.Target.Kind())), e.Target.NodeSpan(),
				"only a variable name may appear left of '='")
			v.validateExpr(e.Target)
		}
		v.validateExpr(e.Value)

	case *ast.Binary:
		v.validateExpr(e.Left)
		v.validateExpr(e.Right)

	case *ast.If:
		v.validateExpr(e.Cond)
		v.validateExpr(e.Then)
		v.validateExpr(e.Else)

	case *ast.Block:
		for _, sub := range e.Exprs {
			v.validateExpr(sub)
		}

	case *ast.Lambda:
		v.validateExpr(e.Body)

	case *ast.Call:
		v.validateCall(e)

	case *ast.ErrorExpr:
		v.addDiag(diagnostics.EParse, "malformed expression", e.Span, "")
	}
}

func (v *validator) validateCall(call *ast.Call) {
	if typ := literalType(call.Callee); typ != "" {
		v.addDiag(diagnostics.ENotCallable, fmt.Sprintf("cannot call %s", typ), call.Callee.NodeSpan(), "")
	}
	if fn, ok := call.Callee.(*ast.Lambda); ok && len(call.Args) < len(fn.Params) {
		v.addDiag(diagnostics.EArity,
			fmt.Sprintf("too few arguments (given %d, expected %d)", len(call.Args), len(fn.Params)), call.Span, "")
	}

	v.validateExpr(call.Callee)
	for _, arg := range call.Args {
		v.validateExpr(arg)
	}
}
