// Package ast defines the lam expression tree produced by the parser.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// BinaryOp represents an infix operator.
type BinaryOp string

const (
	OpAssign BinaryOp = "="
	OpOr     BinaryOp = "||"
	OpAnd    BinaryOp = "&&"
	OpLt     BinaryOp = "<"
	OpGt     BinaryOp = ">"
	OpLtEq   BinaryOp = "<="
	OpGtEq   BinaryOp = ">="
	OpEqEq   BinaryOp = "=="
	OpNeq    BinaryOp = "!="
	OpAdd    BinaryOp = "+"
	OpSub    BinaryOp = "-"
	OpMul    BinaryOp = "*"
	OpDiv    BinaryOp = "/"
	OpMod    BinaryOp = "%"
)

// Precedence is the fixed binding strength of every infix operator.
// Higher binds tighter.
var Precedence = map[BinaryOp]int{
	OpAssign: 1,
	OpOr:     2,
	OpAnd:    3,
	OpLt:     7, OpGt: 7, OpLtEq: 7, OpGtEq: 7, OpEqEq: 7, OpNeq: 7,
	OpAdd: 10, OpSub: 10,
	OpMul: 20, OpDiv: 20, OpMod: 20,
}

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// Program is the top-level sequence of semicolon-separated expressions.
type Program struct {
	Span  Span
	Exprs []Expr
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }

// --- Literals ---

type NumberLit struct {
	Span  Span
	Value float64
}

func (n *NumberLit) Kind() string   { return "Number" }
func (n *NumberLit) NodeSpan() Span { return n.Span }
func (n *NumberLit) exprNode()      {}

type StringLit struct {
	Span  Span
	Value string
}

func (n *StringLit) Kind() string   { return "String" }
func (n *StringLit) NodeSpan() Span { return n.Span }
func (n *StringLit) exprNode()      {}

type BoolLit struct {
	Span  Span
	Value bool
}

func (n *BoolLit) Kind() string   { return "Boolean" }
func (n *BoolLit) NodeSpan() Span { return n.Span }
func (n *BoolLit) exprNode()      {}

// --- Names ---

// Variable is resolved against the environment at evaluation time.
type Variable struct {
	Span Span
	Name string
}

func (n *Variable) Kind() string   { return "Variable" }
func (n *Variable) NodeSpan() Span { return n.Span }
func (n *Variable) exprNode()      {}

// Assign stores Value into Target. The parser accepts any Target;
// the evaluator rejects everything but a *Variable.
type Assign struct {
	Span   Span
	Target Expr
	Value  Expr
}

func (n *Assign) Kind() string   { return "Assign" }
func (n *Assign) NodeSpan() Span { return n.Span }
func (n *Assign) exprNode()      {}

// --- Operators ---

type Binary struct {
	Span  Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *Binary) Kind() string   { return "Binary" }
func (n *Binary) NodeSpan() Span { return n.Span }
func (n *Binary) exprNode()      {}

// --- Control Flow ---

// If has an optional Else; nil means absent.
type If struct {
	Span Span
	Cond Expr
	Then Expr
	Else Expr
}

func (n *If) Kind() string   { return "If" }
func (n *If) NodeSpan() Span { return n.Span }
func (n *If) exprNode()      {}

type Block struct {
	Span  Span
	Exprs []Expr
}

func (n *Block) Kind() string   { return "Block" }
func (n *Block) NodeSpan() Span { return n.Span }
func (n *Block) exprNode()      {}

// --- Functions ---

// Lambda keeps parameter names in source order, duplicates included.
type Lambda struct {
	Span   Span
	Params []string
	Body   Expr
}

func (n *Lambda) Kind() string   { return "Lambda" }
func (n *Lambda) NodeSpan() Span { return n.Span }
func (n *Lambda) exprNode()      {}

type Call struct {
	Span   Span
	Callee Expr
	Args   []Expr
}

func (n *Call) Kind() string   { return "Call" }
func (n *Call) NodeSpan() Span { return n.Span }
func (n *Call) exprNode()      {}

// --- Error recovery ---

// ErrorExpr stands in for input the parser could not make sense of.
// Evaluating it always fails.
type ErrorExpr struct {
	Span Span
}

func (n *ErrorExpr) Kind() string   { return "Error" }
func (n *ErrorExpr) NodeSpan() Span { return n.Span }
func (n *ErrorExpr) exprNode()      {}
