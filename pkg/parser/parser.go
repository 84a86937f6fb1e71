// Package parser implements the lam parser.
//
// The parser pulls tokens from a lexer.Scanner on demand and builds the tree
// with precedence climbing over the fixed table in ast.Precedence.
//
// Two kinds of problems are reported. Unexpected tokens in atom position and
// malformed lambda parameters are recorded, replaced by an *ast.ErrorExpr and
// parsing continues. Everything else (lexical errors, missing punctuation or
// keywords, unknown operators, running out of input) stops the parse.
package parser

import (
	"errors"
	"fmt"

	"github.com/thomasrohde/lam/pkg/ast"
	"github.com/thomasrohde/lam/pkg/diagnostics"
	"github.com/thomasrohde/lam/pkg/lexer"
)

// Parser builds an *ast.Program from a token stream.
type Parser struct {
	scanner *lexer.Scanner
	last    lexer.Token
	diags   []diagnostics.Diagnostic

	// failed is set by the first hard error; from then on the parser
	// behaves as if the input had ended.
	failed     bool
	incomplete bool
}

// New creates a Parser reading from s.
func New(s *lexer.Scanner) *Parser {
	return &Parser{scanner: s}
}

// Parse tokenizes source and parses it into an AST.
// The returned program is never nil; when diagnostics are present it may
// contain *ast.ErrorExpr nodes and must not be evaluated.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	return New(lexer.NewScanner(source, filename)).Parse()
}

// IsIncomplete reports whether source fails to parse only because it ends
// too early, e.g. an unclosed brace or string. The REPL uses this to keep
// reading lines.
func IsIncomplete(source string) bool {
	p := New(lexer.NewScanner(source, ""))
	p.Parse()
	return p.Incomplete()
}

// Incomplete reports whether the parse stopped at end of input.
func (p *Parser) Incomplete() bool {
	return p.incomplete
}

// Parse consumes the whole token stream.
func (p *Parser) Parse() (*ast.Program, []diagnostics.Diagnostic) {
	start := p.peek().Span
	var exprs []ast.Expr

	for !p.atEnd() {
		exprs = append(exprs, p.parseExpression())
		if p.atEnd() {
			break
		}
		p.skipPunc(";")
	}

	return &ast.Program{Span: p.spanFrom(start), Exprs: exprs}, p.diags
}

// --- Token access ---

func (p *Parser) eof() lexer.Token {
	return lexer.Token{Type: lexer.TokEOF, Span: p.last.Span}
}

func (p *Parser) peek() lexer.Token {
	if p.failed {
		return p.eof()
	}
	tok, err := p.scanner.Peek()
	if err != nil {
		p.lexFailure(err)
		return p.eof()
	}
	return tok
}

func (p *Parser) next() lexer.Token {
	if p.failed {
		return p.eof()
	}
	tok, err := p.scanner.Next()
	if err != nil {
		p.lexFailure(err)
		return p.eof()
	}
	p.last = tok
	return tok
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == lexer.TokEOF
}

func (p *Parser) isPunc(value string) bool {
	return p.peek().Is(lexer.TokPunc, value)
}

func (p *Parser) isKeyword(value string) bool {
	return p.peek().Is(lexer.TokKeyword, value)
}

func (p *Parser) skipPunc(value string) bool {
	if p.isPunc(value) {
		p.next()
		return true
	}
	if !p.failed {
		tok := p.peek()
		p.hardError(fmt.Sprintf("expected punctuation '%s', got %s", value, describe(tok)), tok)
	}
	return false
}

func (p *Parser) skipKeyword(value string) bool {
	if p.isKeyword(value) {
		p.next()
		return true
	}
	if !p.failed {
		tok := p.peek()
		p.hardError(fmt.Sprintf("expected keyword '%s', got %s", value, describe(tok)), tok)
	}
	return false
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.TokEOF {
		return "end of input"
	}
	return fmt.Sprintf("'%s'", tok.Value)
}

// --- Diagnostics ---

func (p *Parser) lexFailure(err error) {
	if p.failed {
		return
	}
	p.failed = true
	var le *lexer.LexError
	if errors.As(err, &le) {
		p.diags = append(p.diags, le.Diag)
		if le.Diag.Message == "unterminated string literal" {
			p.incomplete = true
		}
		return
	}
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, ""))
}

func (p *Parser) softError(msg string, tok lexer.Token) {
	span := tok.Span
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, &span, ""))
}

func (p *Parser) hardError(msg string, tok lexer.Token) {
	if p.failed {
		return
	}
	p.softError(msg, tok)
	p.failed = true
	if tok.Type == lexer.TokEOF {
		p.incomplete = true
	}
}

func (p *Parser) spanFrom(start ast.Span) ast.Span {
	end := p.last.Span
	if end.EndLine < start.StartLine || (end.EndLine == start.StartLine && end.EndCol < start.StartCol) {
		end = start
	}
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

// --- Expressions ---

func (p *Parser) parseExpression() ast.Expr {
	return p.maybeCall(p.maybeBinary(p.parseAtom(), 0))
}

// maybeBinary folds operators that bind tighter than myPrec onto left.
func (p *Parser) maybeBinary(left ast.Expr, myPrec int) ast.Expr {
	tok := p.peek()
	if tok.Type != lexer.TokOperator {
		return left
	}

	op := ast.BinaryOp(tok.Value)
	prec, ok := ast.Precedence[op]
	if !ok {
		p.hardError(fmt.Sprintf("unknown operator '%s'", tok.Value), tok)
		return left
	}
	if prec <= myPrec {
		return left
	}
	p.next()

	start := left.NodeSpan()
	if op == ast.OpAssign {
		// Right-associative: a = b = c is a = (b = c).
		right := p.maybeBinary(p.parseAtom(), prec-1)
		return p.maybeBinary(&ast.Assign{Span: p.spanFrom(start), Target: left, Value: right}, myPrec)
	}

	right := p.maybeBinary(p.parseAtom(), prec)
	return p.maybeBinary(&ast.Binary{Span: p.spanFrom(start), Op: op, Left: left, Right: right}, myPrec)
}

// maybeCall turns callee into a call for every argument list that follows it.
func (p *Parser) maybeCall(callee ast.Expr) ast.Expr {
	for p.isPunc("(") {
		start := callee.NodeSpan()
		args := delimited(p, "(", ")", ",", p.parseExpressionItem)
		callee = &ast.Call{Span: p.spanFrom(start), Callee: callee, Args: args}
	}
	return callee
}

func (p *Parser) parseExpressionItem() (ast.Expr, bool) {
	return p.parseExpression(), true
}

func (p *Parser) parseAtom() ast.Expr {
	return p.maybeCall(p.parsePrimary())
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()

	switch {
	case p.failed:
		return &ast.ErrorExpr{Span: tok.Span}
	case tok.Is(lexer.TokPunc, "("):
		p.next()
		inner := p.parseExpression()
		p.skipPunc(")")
		return inner
	case tok.Is(lexer.TokPunc, "{"):
		return p.parseBlock()
	case tok.Is(lexer.TokKeyword, "if"):
		return p.parseIf()
	case tok.Is(lexer.TokKeyword, "true"), tok.Is(lexer.TokKeyword, "false"):
		p.next()
		return &ast.BoolLit{Span: tok.Span, Value: tok.Value == "true"}
	case tok.Is(lexer.TokKeyword, "lambda"), tok.Is(lexer.TokKeyword, lexer.LambdaGlyph):
		return p.parseLambda()
	case tok.Type == lexer.TokEOF:
		p.hardError("unexpected end of input", tok)
		return &ast.ErrorExpr{Span: tok.Span}
	}

	p.next()
	switch tok.Type {
	case lexer.TokNumber:
		return &ast.NumberLit{Span: tok.Span, Value: tok.Num}
	case lexer.TokString:
		return &ast.StringLit{Span: tok.Span, Value: tok.Value}
	case lexer.TokIdent:
		return &ast.Variable{Span: tok.Span, Name: tok.Value}
	}
	p.softError(fmt.Sprintf("unexpected token %s", describe(tok)), tok)
	return &ast.ErrorExpr{Span: tok.Span}
}

func (p *Parser) parseIf() ast.Expr {
	start := p.next() // consume 'if'

	cond := p.parseExpression()
	if !p.isPunc("{") {
		p.skipKeyword("then")
	}
	then := p.parseExpression()

	var otherwise ast.Expr
	if p.isKeyword("else") {
		p.next()
		otherwise = p.parseExpression()
	}

	return &ast.If{Span: p.spanFrom(start.Span), Cond: cond, Then: then, Else: otherwise}
}

// parseBlock unwraps trivial blocks: {} is false and {e} is e.
func (p *Parser) parseBlock() ast.Expr {
	start := p.peek()
	exprs := delimited(p, "{", "}", ";", p.parseExpressionItem)

	switch len(exprs) {
	case 0:
		return &ast.BoolLit{Span: p.spanFrom(start.Span), Value: false}
	case 1:
		return exprs[0]
	default:
		return &ast.Block{Span: p.spanFrom(start.Span), Exprs: exprs}
	}
}

func (p *Parser) parseLambda() ast.Expr {
	start := p.next() // consume 'lambda' or 'λ'

	params := delimited(p, "(", ")", ",", p.parseParam)
	if params == nil {
		params = []string{}
	}
	body := p.parseExpression()

	return &ast.Lambda{Span: p.spanFrom(start.Span), Params: params, Body: body}
}

func (p *Parser) parseParam() (string, bool) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokIdent:
		p.next()
		return tok.Value, true
	case lexer.TokEOF:
		p.hardError("expected variable name, but got to end of input", tok)
		return "", false
	}
	p.next()
	p.softError(fmt.Sprintf("expected variable name, got %s", describe(tok)), tok)
	return "", false
}

// delimited parses start item sep item ... stop, allowing a trailing sep.
func delimited[T any](p *Parser, start, stop, sep string, parseItem func() (T, bool)) []T {
	var items []T
	if !p.skipPunc(start) {
		return items
	}

	first := true
	for !p.atEnd() {
		if p.isPunc(stop) {
			break
		}
		if first {
			first = false
		} else if !p.skipPunc(sep) {
			return items
		}
		if p.isPunc(stop) {
			break
		}
		if item, ok := parseItem(); ok {
			items = append(items, item)
		}
	}

	p.skipPunc(stop)
	return items
}
