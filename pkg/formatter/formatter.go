// Package formatter implements the lam source code formatter.
package formatter

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/lam/pkg/ast"
)

const indent = "  "

// bindingPower returns the precedence of e if it is an infix form.
func bindingPower(e ast.Expr) (int, bool) {
	switch n := e.(type) {
	case *ast.Binary:
		return ast.Precedence[n.Op], true
	case *ast.Assign:
		return ast.Precedence[ast.OpAssign], true
	}
	return 0, false
}

// open reports whether e extends as far right as the parser lets it, so that
// anything printed after it would be swallowed.
func open(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Lambda, *ast.If:
		return true
	}
	return false
}

func needsParens(child ast.Expr, parentOp ast.BinaryOp, isRight bool) bool {
	if open(child) {
		return true
	}
	childPrec, ok := bindingPower(child)
	if !ok {
		return false
	}
	parentPrec := ast.Precedence[parentOp]
	if childPrec < parentPrec {
		return true
	}
	// Operators are left-associative: same precedence on the right needs parens
	if childPrec == parentPrec && isRight {
		return true
	}
	return false
}

// Format pretty-prints a lam AST back to source code: one top-level
// expression per line, each terminated by a semicolon.
func Format(program *ast.Program) string {
	if len(program.Exprs) == 0 {
		return ""
	}
	lines := make([]string, len(program.Exprs))
	for i, e := range program.Exprs {
		lines[i] = formatExpr(e, 0) + ";"
	}
	return strings.Join(lines, "\n") + "\n"
}

// HasComments checks if a source string contains lam comments (# prefix).
func HasComments(source string) bool {
	inString := false
	for i := 0; i < len(source); i++ {
		switch c := source[i]; {
		case inString && c == '\\':
			i++ // skip the escaped character
		case c == '"':
			inString = !inString
		case !inString && c == '#':
			return true
		}
	}
	return false
}

func paren(s string) string {
	return "(" + s + ")"
}

func formatExpr(e ast.Expr, depth int) string {
	switch expr := e.(type) {
	case *ast.NumberLit:
		return strconv.FormatFloat(expr.Value, 'f', -1, 64)
	case *ast.StringLit:
		return quote(expr.Value)
	case *ast.BoolLit:
		return strconv.FormatBool(expr.Value)
	case *ast.Variable:
		return expr.Name

	case *ast.Assign:
		target := formatExpr(expr.Target, depth)
		if _, isVar := expr.Target.(*ast.Variable); !isVar {
			if _, infix := bindingPower(expr.Target); infix || open(expr.Target) {
				target = paren(target)
			}
		}
		return target + " = " + formatExpr(expr.Value, depth)

	case *ast.Binary:
		leftStr := formatExpr(expr.Left, depth)
		rightStr := formatExpr(expr.Right, depth)
		if needsParens(expr.Left, expr.Op, false) {
			leftStr = paren(leftStr)
		}
		if needsParens(expr.Right, expr.Op, true) {
			rightStr = paren(rightStr)
		}
		return leftStr + " " + string(expr.Op) + " " + rightStr

	case *ast.If:
		then := formatExpr(expr.Then, depth)
		if expr.Else != nil && dangling(expr.Then) {
			then = paren(then)
		}
		out := "if " + formatExpr(expr.Cond, depth) + " then " + then
		if expr.Else != nil {
			out += " else " + formatExpr(expr.Else, depth)
		}
		return out

	case *ast.Block:
		if len(expr.Exprs) == 0 {
			return "{}"
		}
		inner := strings.Repeat(indent, depth+1)
		lines := make([]string, len(expr.Exprs))
		for i, sub := range expr.Exprs {
			lines[i] = inner + formatExpr(sub, depth+1)
		}
		return "{\n" + strings.Join(lines, ";\n") + "\n" + strings.Repeat(indent, depth) + "}"

	case *ast.Lambda:
		return "lambda (" + strings.Join(expr.Params, ", ") + ") " + formatExpr(expr.Body, depth)

	case *ast.Call:
		callee := formatExpr(expr.Callee, depth)
		if _, infix := bindingPower(expr.Callee); infix || open(expr.Callee) {
			callee = paren(callee)
		}
		args := make([]string, len(expr.Args))
		for i, arg := range expr.Args {
			args[i] = formatExpr(arg, depth)
		}
		return callee + "(" + strings.Join(args, ", ") + ")"

	case *ast.ErrorExpr:
		return "<error>"
	}
	return ""
}

// dangling reports whether e ends in an if without else, which would take
// the else of an enclosing if.
func dangling(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.If:
		if n.Else == nil {
			return true
		}
		return dangling(n.Else)
	case *ast.Lambda:
		return dangling(n.Body)
	case *ast.Assign:
		return dangling(n.Value)
	}
	return false
}

// quote escapes only what the scanner treats specially.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
