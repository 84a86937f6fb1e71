// Package lexer implements the lam tokenizer.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/lam/pkg/ast"
	"github.com/thomasrohde/lam/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	TokKeyword TokenType = iota
	TokNumber
	TokOperator
	TokPunc
	TokString
	TokIdent
	TokError

	// TokEOF marks the end of input; it is never part of the program.
	TokEOF
)

func (t TokenType) String() string {
	switch t {
	case TokKeyword:
		return "keyword"
	case TokNumber:
		return "number"
	case TokOperator:
		return "operator"
	case TokPunc:
		return "punctuation"
	case TokString:
		return "string"
	case TokIdent:
		return "identifier"
	case TokError:
		return "error"
	case TokEOF:
		return "end of input"
	default:
		return fmt.Sprintf("token(%d)", int(t))
	}
}

// Token represents a single lexer token. Num is only meaningful for TokNumber.
type Token struct {
	Type  TokenType
	Value string
	Num   float64
	Span  ast.Span
}

// Is reports whether the token has the given type and text.
func (t Token) Is(typ TokenType, value string) bool {
	return t.Type == typ && t.Value == value
}

// LambdaGlyph is accepted everywhere the keyword lambda is.
const LambdaGlyph = "λ"

var keywords = map[string]bool{
	"if":        true,
	"then":      true,
	"else":      true,
	"lambda":    true,
	LambdaGlyph: true,
	"true":      true,
	"false":     true,
}

const (
	puncChars = ",;(){}[]"
	opChars   = "+-*/%=&|<>!"
)

// Scanner produces tokens lazily with one token of lookahead.
type Scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int

	peeked  *Token
	peekErr error
}

// NewScanner creates a Scanner over source. filename is only used in spans.
func NewScanner(source, filename string) *Scanner {
	return &Scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

// Peek returns the next token without consuming it.
// At end of input it returns a TokEOF token.
func (s *Scanner) Peek() (Token, error) {
	if s.peeked == nil {
		tok, err := s.nextToken()
		s.peeked = &tok
		s.peekErr = err
	}
	return *s.peeked, s.peekErr
}

// Next consumes and returns the next token.
func (s *Scanner) Next() (Token, error) {
	tok, err := s.Peek()
	if err == nil {
		s.peeked = nil
	}
	return tok, err
}

func (s *Scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *Scanner) peekRune() rune {
	if s.atEnd() {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(s.source[s.pos:])
	return r
}

func (s *Scanner) advance() rune {
	r, size := utf8.DecodeRuneInString(s.source[s.pos:])
	s.pos += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

func (s *Scanner) readWhile(pred func(rune) bool) string {
	start := s.pos
	for !s.atEnd() && pred(s.peekRune()) {
		s.advance()
	}
	return s.source[start:s.pos]
}

func (s *Scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == 'λ'
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || isDigit(r) || strings.ContainsRune("?!-<>=", r)
}

func isPunc(r rune) bool {
	return strings.ContainsRune(puncChars, r)
}

func isOpChar(r rune) bool {
	return strings.ContainsRune(opChars, r)
}

func (s *Scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		r := s.peekRune()
		if isWhitespace(r) {
			s.advance()
		} else if r == '#' {
			// Skip to and including the newline
			s.readWhile(func(r rune) bool { return r != '\n' })
			if !s.atEnd() {
				s.advance()
			}
		} else {
			break
		}
	}
}

func (s *Scanner) scanString() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // consume opening "

	var buf strings.Builder
	for !s.atEnd() {
		r := s.advance()
		switch r {
		case '"':
			return Token{Type: TokString, Value: buf.String(), Span: s.span(startLine, startCol)}, nil
		case '\\':
			// \c is the literal c, whatever c is
			if s.atEnd() {
				return s.lexError(startLine, startCol, "unterminated string literal")
			}
			buf.WriteRune(s.advance())
		default:
			buf.WriteRune(r)
		}
	}
	return s.lexError(startLine, startCol, "unterminated string literal")
}

func (s *Scanner) scanNumber() (Token, error) {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	s.readWhile(isDigit)
	// One '.' belongs to the number even without digits after it: "1." is 1.
	if s.peekRune() == '.' {
		s.advance()
		s.readWhile(isDigit)
	}

	text := s.source[startPos:s.pos]
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return s.lexError(startLine, startCol, fmt.Sprintf("invalid number literal %q", text))
	}
	return Token{Type: TokNumber, Value: text, Num: value, Span: s.span(startLine, startCol)}, nil
}

func (s *Scanner) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	text := s.readWhile(isIdentChar)

	typ := TokIdent
	if keywords[text] {
		typ = TokKeyword
	}
	return Token{Type: typ, Value: text, Span: s.span(startLine, startCol)}
}

func (s *Scanner) lexError(line, col int, msg string) (Token, error) {
	span := ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: s.line, EndCol: s.col}
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&span,
		"",
	)
	return Token{Type: TokError, Span: span}, &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	if e.Diag.Span == nil {
		return e.Diag.Message
	}
	return fmt.Sprintf("%s at line %d, col %d", e.Diag.Message, e.Diag.Span.StartLine, e.Diag.Span.StartCol)
}

func (s *Scanner) nextToken() (Token, error) {
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return Token{Type: TokEOF, Span: s.span(s.line, s.col)}, nil
	}

	r := s.peekRune()
	startLine, startCol := s.line, s.col

	switch {
	case r == '"':
		return s.scanString()
	case isIdentStart(r):
		return s.scanIdentOrKeyword(), nil
	case isDigit(r):
		return s.scanNumber()
	case isPunc(r):
		s.advance()
		return Token{Type: TokPunc, Value: string(r), Span: s.span(startLine, startCol)}, nil
	case isOpChar(r):
		op := s.readWhile(isOpChar)
		return Token{Type: TokOperator, Value: op, Span: s.span(startLine, startCol)}, nil
	}

	if r == utf8.RuneError {
		s.advance()
		return s.lexError(startLine, startCol, "invalid UTF-8 in source")
	}
	s.advance()
	return s.lexError(startLine, startCol, fmt.Sprintf("can't handle character %q", r))
}

// Tokenize breaks source code into a slice of tokens ending with TokEOF.
func Tokenize(source, filename string) ([]Token, error) {
	s := NewScanner(source, filename)
	var tokens []Token

	for {
		tok, err := s.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
