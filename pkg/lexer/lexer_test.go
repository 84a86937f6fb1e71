package lexer

import (
	"errors"
	"strings"
	"testing"
)

// helper to tokenize and fail on error
func mustTokenize(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := Tokenize(source, "test.lam")
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return tokens
}

// helper that strips the trailing EOF for easier assertions
func mustTokenizeNoEOF(t *testing.T, source string) []Token {
	t.Helper()
	tokens := mustTokenize(t, source)
	if len(tokens) == 0 {
		t.Fatal("expected at least one token (EOF)")
	}
	if tokens[len(tokens)-1].Type != TokEOF {
		t.Fatal("last token is not EOF")
	}
	return tokens[:len(tokens)-1]
}

func mustLexError(t *testing.T, source string) *LexError {
	t.Helper()
	_, err := Tokenize(source, "test.lam")
	if err == nil {
		t.Fatalf("expected lex error for %q", source)
	}
	var le *LexError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LexError, got %T", err)
	}
	return le
}

// ---------------------------------------------------------------------------
// Test: empty input produces only EOF
// ---------------------------------------------------------------------------
func TestEmptyInput(t *testing.T) {
	for _, src := range []string{"", "   \t\r\n", "# only a comment", "# c1\n# c2\n"} {
		tokens := mustTokenize(t, src)
		if len(tokens) != 1 || tokens[0].Type != TokEOF {
			t.Errorf("%q: expected a single EOF token, got %v", src, tokens)
		}
	}
}

// ---------------------------------------------------------------------------
// Test: keywords
// ---------------------------------------------------------------------------
func TestKeywords(t *testing.T) {
	for _, kw := range []string{"if", "then", "else", "lambda", "λ", "true", "false"} {
		t.Run(kw, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, kw)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != TokKeyword || tokens[0].Value != kw {
				t.Errorf("got %v %q, want keyword %q", tokens[0].Type, tokens[0].Value, kw)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: identifiers
// ---------------------------------------------------------------------------
func TestIdentifiers(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"x", "x"},
		{"a_variable", "a_variable"},
		{"another-variable", "another-variable"},
		{"empty?", "empty?"},
		{"set!", "set!"},
		{"a<=b", "a<=b"},
		{"_hidden", "_hidden"},
		{"x1y2", "x1y2"},
		{"iffy", "iffy"},
		{"λx", "λx"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.source)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d: %v", len(tokens), tokens)
			}
			if tokens[0].Type != TokIdent || tokens[0].Value != tt.want {
				t.Errorf("got %v %q, want identifier %q", tokens[0].Type, tokens[0].Value, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: numbers
// ---------------------------------------------------------------------------
func TestNumbers(t *testing.T) {
	tests := []struct {
		source string
		want   float64
	}{
		{"0", 0},
		{"42", 42},
		{"123.45", 123.45},
		{"007", 7},
		{"0.5", 0.5},
		{"1.", 1},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.source)
			if len(tokens) != 1 || tokens[0].Type != TokNumber {
				t.Fatalf("expected a single number token, got %v", tokens)
			}
			if tokens[0].Num != tt.want {
				t.Errorf("got %v, want %v", tokens[0].Num, tt.want)
			}
		})
	}
}

func TestNumberWithTrailingDot(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "3.x 1.;")
	want := []struct {
		typ   TokenType
		value string
	}{
		{TokNumber, "3."},
		{TokIdent, "x"},
		{TokNumber, "1."},
		{TokPunc, ";"},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %v", len(want), tokens)
	}
	for i, w := range want {
		if tokens[i].Type != w.typ || tokens[i].Value != w.value {
			t.Errorf("token %d: got %s %q, want %s %q", i, tokens[i].Type, tokens[i].Value, w.typ, w.value)
		}
	}
	if tokens[0].Num != 3 || tokens[2].Num != 1 {
		t.Errorf("values: got %v and %v", tokens[0].Num, tokens[2].Num)
	}
}

func TestNumberStopsAtSecondDot(t *testing.T) {
	le := mustLexError(t, "1.2.3")
	if !strings.Contains(le.Diag.Message, "can't handle character") {
		t.Errorf("unexpected message: %s", le.Diag.Message)
	}
}

// ---------------------------------------------------------------------------
// Test: strings
// ---------------------------------------------------------------------------
func TestStrings(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"simple", `"a string"`, "a string"},
		{"escaped quote", `"other \" string"`, `other " string`},
		{"escaped backslash", `"a\\b"`, `a\b`},
		{"escape is literal", `"\n"`, "n"},
		{"multi-line", "\"line1\nline2\"", "line1\nline2"},
		{"unicode", `"héllo λ"`, "héllo λ"},
		{"empty", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.source)
			if len(tokens) != 1 || tokens[0].Type != TokString {
				t.Fatalf("expected a single string token, got %v", tokens)
			}
			if tokens[0].Value != tt.want {
				t.Errorf("got %q, want %q", tokens[0].Value, tt.want)
			}
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	for _, src := range []string{`"abc`, `"abc\`, `x = "`} {
		le := mustLexError(t, src)
		if le.Diag.Message != "unterminated string literal" {
			t.Errorf("%q: got %q", src, le.Diag.Message)
		}
	}
}

// ---------------------------------------------------------------------------
// Test: punctuation and operators
// ---------------------------------------------------------------------------
func TestPunctuation(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, ",;(){}[]")
	if len(tokens) != 8 {
		t.Fatalf("expected 8 tokens, got %d", len(tokens))
	}
	for i, tok := range tokens {
		if tok.Type != TokPunc || tok.Value != string(",;(){}[]"[i]) {
			t.Errorf("token %d: got %v %q", i, tok.Type, tok.Value)
		}
	}
}

func TestOperatorsAreMaximalRuns(t *testing.T) {
	tests := []struct {
		source string
		want   []string
	}{
		{"a <= b", []string{"<="}},
		{"a == b", []string{"=="}},
		{"a && b || c", []string{"&&", "||"}},
		{"1 + 2 * 3", []string{"+", "*"}},
		{"x = -1", []string{"=-"}},
		{"a != b", []string{"!="}},
		{"5 % 2", []string{"%"}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			var ops []string
			for _, tok := range mustTokenizeNoEOF(t, tt.source) {
				if tok.Type == TokOperator {
					ops = append(ops, tok.Value)
				}
			}
			if strings.Join(ops, " ") != strings.Join(tt.want, " ") {
				t.Errorf("got operators %v, want %v", ops, tt.want)
			}
		})
	}
}

func TestUnrecognizedCharacter(t *testing.T) {
	le := mustLexError(t, "a @ b")
	if !strings.Contains(le.Diag.Message, "'@'") {
		t.Errorf("expected offending character in message, got %q", le.Diag.Message)
	}
	if le.Diag.Span == nil || le.Diag.Span.StartLine != 1 || le.Diag.Span.StartCol != 3 {
		t.Errorf("unexpected span: %+v", le.Diag.Span)
	}
	if !strings.Contains(le.Error(), "line 1, col 3") {
		t.Errorf("Error() should carry the position, got %q", le.Error())
	}
}

// ---------------------------------------------------------------------------
// Test: comments
// ---------------------------------------------------------------------------
func TestCommentsAreSkipped(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "# leading\nx # trailing\n# between\ny")
	if len(tokens) != 2 || tokens[0].Value != "x" || tokens[1].Value != "y" {
		t.Errorf("unexpected tokens: %v", tokens)
	}
}

// ---------------------------------------------------------------------------
// Test: spans track line and column per rune
// ---------------------------------------------------------------------------
func TestSpans(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "λ (x)\n  x + 1")
	want := []struct {
		value     string
		line, col int
	}{
		{"λ", 1, 1},
		{"(", 1, 3},
		{"x", 1, 4},
		{")", 1, 5},
		{"x", 2, 3},
		{"+", 2, 5},
		{"1", 2, 7},
	}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, w := range want {
		got := tokens[i]
		if got.Value != w.value || got.Span.StartLine != w.line || got.Span.StartCol != w.col {
			t.Errorf("token %d: got %q at %d:%d, want %q at %d:%d",
				i, got.Value, got.Span.StartLine, got.Span.StartCol, w.value, w.line, w.col)
		}
		if got.Span.File != "test.lam" {
			t.Errorf("token %d: file = %q", i, got.Span.File)
		}
	}
}

// ---------------------------------------------------------------------------
// Test: Peek / Next contract
// ---------------------------------------------------------------------------
func TestPeekDoesNotConsume(t *testing.T) {
	s := NewScanner("a b", "")

	p1, err := s.Peek()
	if err != nil {
		t.Fatal(err)
	}
	p2, _ := s.Peek()
	if p1 != p2 || p1.Value != "a" {
		t.Fatalf("Peek is not idempotent: %v vs %v", p1, p2)
	}

	n, _ := s.Next()
	if n != p1 {
		t.Errorf("Next after Peek returned %v, want cached %v", n, p1)
	}
	n, _ = s.Next()
	if n.Value != "b" {
		t.Errorf("expected b, got %v", n)
	}
	for i := 0; i < 3; i++ {
		n, err = s.Next()
		if err != nil || n.Type != TokEOF {
			t.Fatalf("expected EOF forever after end, got %v, %v", n, err)
		}
	}
}

func TestErrorIsSticky(t *testing.T) {
	s := NewScanner(`"open`, "")
	tok, err := s.Next()
	if err == nil || tok.Type != TokError {
		t.Fatalf("expected error token, got %v, %v", tok, err)
	}
	tok, err = s.Next()
	if err == nil || tok.Type != TokError {
		t.Fatalf("error should repeat, got %v, %v", tok, err)
	}
}

func TestTokenTypeString(t *testing.T) {
	if TokPunc.String() != "punctuation" || TokEOF.String() != "end of input" {
		t.Errorf("unexpected names: %s, %s", TokPunc, TokEOF)
	}
}
