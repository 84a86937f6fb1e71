package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders an expression as a span-free S-expression, e.g. `(+ 1 (* 2 3))`.
// Two trees that differ only in source positions dump identically.
func Dump(e Expr) string {
	var b strings.Builder
	dump(&b, e)
	return b.String()
}

// DumpProgram dumps every top-level expression on its own line.
func DumpProgram(p *Program) string {
	lines := make([]string, len(p.Exprs))
	for i, e := range p.Exprs {
		lines[i] = Dump(e)
	}
	return strings.Join(lines, "\n")
}

func dump(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
		b.WriteString("<nil>")
	case *NumberLit:
		b.WriteString(strconv.FormatFloat(n.Value, 'f', -1, 64))
	case *StringLit:
		b.WriteString(strconv.Quote(n.Value))
	case *BoolLit:
		b.WriteString(strconv.FormatBool(n.Value))
	case *Variable:
		b.WriteString(n.Name)
	case *Assign:
		b.WriteString("(= ")
		dump(b, n.Target)
		b.WriteByte(' ')
		dump(b, n.Value)
		b.WriteByte(')')
	case *Binary:
		fmt.Fprintf(b, "(%s ", n.Op)
		dump(b, n.Left)
		b.WriteByte(' ')
		dump(b, n.Right)
		b.WriteByte(')')
	case *If:
		b.WriteString("(if ")
		dump(b, n.Cond)
		b.WriteByte(' ')
		dump(b, n.Then)
		if n.Else != nil {
			b.WriteByte(' ')
			dump(b, n.Else)
		}
		b.WriteByte(')')
	case *Lambda:
		fmt.Fprintf(b, "(lambda (%s) ", strings.Join(n.Params, " "))
		dump(b, n.Body)
		b.WriteByte(')')
	case *Block:
		b.WriteString("(do")
		for _, sub := range n.Exprs {
			b.WriteByte(' ')
			dump(b, sub)
		}
		b.WriteByte(')')
	case *Call:
		b.WriteString("(call ")
		dump(b, n.Callee)
		for _, arg := range n.Args {
			b.WriteByte(' ')
			dump(b, arg)
		}
		b.WriteByte(')')
	case *ErrorExpr:
		b.WriteString("<error>")
	default:
		fmt.Fprintf(b, "<%s>", e.Kind())
	}
}
