package parser_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/lam/pkg/ast"
	"github.com/thomasrohde/lam/pkg/diagnostics"
	"github.com/thomasrohde/lam/pkg/parser"
)

// helper: parse source and assert no diagnostics
func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, diags := parser.Parse(source, "test.lam")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if prog == nil {
		t.Fatal("expected non-nil program")
	}
	return prog
}

// helper: parse source and assert at least one diagnostic
func mustFail(t *testing.T, source string) (*ast.Program, []diagnostics.Diagnostic) {
	t.Helper()
	prog, diags := parser.Parse(source, "test.lam")
	if len(diags) == 0 {
		t.Fatalf("expected parse of %q to fail, got %s", source, ast.DumpProgram(prog))
	}
	return prog, diags
}

// helper: parse and dump, one top-level expression per line
func dump(t *testing.T, source string) string {
	t.Helper()
	return ast.DumpProgram(mustParse(t, source))
}

func assertDump(t *testing.T, source, want string) {
	t.Helper()
	if got := dump(t, source); got != want {
		t.Errorf("parse %q\n got: %s\nwant: %s", source, got, want)
	}
}

// ---- 1. Top level ----

func TestParsesNothing(t *testing.T) {
	for _, src := range []string{"", "   ", "# just a comment\n"} {
		prog := mustParse(t, src)
		if len(prog.Exprs) != 0 {
			t.Errorf("%q: expected no expressions, got %d", src, len(prog.Exprs))
		}
	}
}

func TestTrailingSemicolonIsOptional(t *testing.T) {
	assertDump(t, "1; 2;", "1\n2")
	assertDump(t, "1; 2", "1\n2")
}

func TestMissingSemicolonBetweenExpressions(t *testing.T) {
	_, diags := mustFail(t, "1 2")
	if !strings.Contains(diags[0].Message, "expected punctuation ';'") {
		t.Errorf("unexpected message: %s", diags[0].Message)
	}
}

// ---- 2. Literals and variables ----

func TestLiterals(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"123.45;", "123.45"},
		{"true;false;", "true\nfalse"},
		{"a_variable;another-variable;", "a_variable\nanother-variable"},
		{`"a string"; "other \" string";`, `"a string"` + "\n" + `"other \" string"`},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertDump(t, tt.source, tt.want)
		})
	}
}

func TestNumberLiteralNode(t *testing.T) {
	prog := mustParse(t, "123.45")
	lit, ok := prog.Exprs[0].(*ast.NumberLit)
	if !ok {
		t.Fatalf("expected *ast.NumberLit, got %T", prog.Exprs[0])
	}
	if lit.Value != 123.45 {
		t.Errorf("got %v", lit.Value)
	}
}

func TestNestedParenthesesUnwrap(t *testing.T) {
	for _, src := range []string{"123.45", "(123.45)", "(((123.45)))", "((((((((((123.45))))))))))"} {
		prog := mustParse(t, src)
		lit, ok := prog.Exprs[0].(*ast.NumberLit)
		if !ok || lit.Value != 123.45 {
			t.Errorf("%s: expected Number(123.45), got %s", src, ast.Dump(prog.Exprs[0]))
		}
	}
}

// ---- 3. Operators ----

func TestPrecedence(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"1 * 2 + 3", "(+ (* 1 2) 3)"},
		{"(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
		{"8 / 4 % 3", "(% (/ 8 4) 3)"},
		{"a < b == c", "(== (< a b) c)"},
		{"a + 1 < b * 2", "(< (+ a 1) (* b 2))"},
		{"a || b && c", "(|| a (&& b c))"},
		{"a && b || c", "(|| (&& a b) c)"},
		{"x = 1 + 2", "(= x (+ 1 2))"},
		{"x = a || b", "(= x (|| a b))"},
		{"a = b = 1", "(= a (= b 1))"},
		{"a >= 1 && a <= 9 && a != 5", "(&& (&& (>= a 1) (<= a 9)) (!= a 5))"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertDump(t, tt.source, tt.want)
		})
	}
}

func TestAssignTargetIsNotCheckedAtParseTime(t *testing.T) {
	assertDump(t, `"s" = 1`, `(= "s" 1)`)
	assertDump(t, "x || y = 1", "(= (|| x y) 1)")
}

func TestUnknownOperator(t *testing.T) {
	for _, src := range []string{"a => b", "a ! b", "1 +* 2"} {
		_, diags := mustFail(t, src)
		if !strings.Contains(diags[0].Message, "unknown operator") {
			t.Errorf("%q: unexpected message %q", src, diags[0].Message)
		}
	}
}

// ---- 4. if ----

func TestIf(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"if 0 then 1;", "(if 0 1)"},
		{"if 0 then 1 else 2;", "(if 0 1 2)"},
		{"if 0 { 1; } else { 2; };", "(if 0 1 2)"},
		{"if a then b else if c then d else e", "(if a b (if c d e))"},
		{"if x > 1 { a; b } else c", "(if (> x 1) (do a b) c)"},
		{"if x {}", "(if x false)"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertDump(t, tt.source, tt.want)
		})
	}
}

func TestIfRequiresThenOrBlock(t *testing.T) {
	_, diags := mustFail(t, "if 0 1")
	if !strings.Contains(diags[0].Message, "expected keyword 'then'") {
		t.Errorf("unexpected message: %s", diags[0].Message)
	}
}

// ---- 5. Blocks ----

func TestBlocks(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"{};", "false"},
		{"{1;};", "1"},
		{"{1};", "1"},
		{"{ 1; a_var; };", "(do 1 a_var)"},
		{"{ 1; 2; 3 }", "(do 1 2 3)"},
		{"{ { 1; 2 }; 3 }", "(do (do 1 2) 3)"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertDump(t, tt.source, tt.want)
		})
	}
}

func TestEmptyBlockIsBooleanLiteral(t *testing.T) {
	prog := mustParse(t, "{}")
	lit, ok := prog.Exprs[0].(*ast.BoolLit)
	if !ok || lit.Value {
		t.Fatalf("expected Boolean(false), got %T", prog.Exprs[0])
	}
}

func TestUnclosedBlock(t *testing.T) {
	_, diags := mustFail(t, "{ 1; 2")
	if !strings.Contains(diags[0].Message, "end of input") {
		t.Errorf("unexpected message: %s", diags[0].Message)
	}
}

// ---- 6. Lambdas ----

func TestLambdas(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"lambda () 1;", "(lambda () 1)"},
		{"λ () 2;", "(lambda () 2)"},
		{"lambda (a_var, other-var,) { 1 };", "(lambda (a_var other-var) 1)"},
		{"lambda (x, x) x", "(lambda (x x) x)"},
		{"lambda (a, b) a + b", "(lambda (a b) (+ a b))"},
		{"λ(x) λ(y) x", "(lambda (x) (lambda (y) x))"},
		{"f = lambda (n) { n; n }", "(= f (lambda (n) (do n n)))"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertDump(t, tt.source, tt.want)
		})
	}
}

func TestLambdaParamsMustBeNames(t *testing.T) {
	prog, diags := mustFail(t, "lambda (a_var, 1) { 1 };")
	if !strings.Contains(diags[0].Message, "expected variable name, got '1'") {
		t.Errorf("unexpected message: %s", diags[0].Message)
	}
	// parsing continues past the bad parameter
	lam, ok := prog.Exprs[0].(*ast.Lambda)
	if !ok {
		t.Fatalf("expected lambda, got %T", prog.Exprs[0])
	}
	if len(lam.Params) != 1 || lam.Params[0] != "a_var" {
		t.Errorf("unexpected params: %v", lam.Params)
	}
}

func TestLambdaParamsAtEndOfInput(t *testing.T) {
	_, diags := mustFail(t, "lambda (a_var,")
	if diags[0].Message != "expected variable name, but got to end of input" {
		t.Errorf("unexpected message: %s", diags[0].Message)
	}
}

// ---- 7. Calls ----

func TestCalls(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"f()", "(call f)"},
		{"func(1, a_var, lambda() {});", "(call func 1 a_var (lambda () false))"},
		{"f(1, 2,)", "(call f 1 2)"},
		{"f(x)(y)", "(call (call f x) y)"},
		{"f(x)(y)(z)", "(call (call (call f x) y) z)"},
		{"(lambda (x) x)(1)", "(call (lambda (x) x) 1)"},
		{"1 + f(2) * 3", "(+ 1 (* (call f 2) 3))"},
		{"f(a + b, g(c))", "(call f (+ a b) (call g c))"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertDump(t, tt.source, tt.want)
		})
	}
}

func TestCallArgumentsNeedCommas(t *testing.T) {
	_, diags := mustFail(t, "f(1 2)")
	if !strings.Contains(diags[0].Message, "expected punctuation ','") {
		t.Errorf("unexpected message: %s", diags[0].Message)
	}
}

// ---- 8. Error recovery ----

func TestUnexpectedTokenProducesErrorNode(t *testing.T) {
	prog, diags := mustFail(t, "then; 2")
	if len(prog.Exprs) != 2 {
		t.Fatalf("expected parsing to continue, got %d expressions", len(prog.Exprs))
	}
	if _, ok := prog.Exprs[0].(*ast.ErrorExpr); !ok {
		t.Errorf("expected error node, got %T", prog.Exprs[0])
	}
	if ast.Dump(prog.Exprs[1]) != "2" {
		t.Errorf("expected second expression to parse, got %s", ast.Dump(prog.Exprs[1]))
	}
	if diags[0].Code != diagnostics.EParse || diags[0].Message != "unexpected token 'then'" {
		t.Errorf("unexpected diagnostic: %+v", diags[0])
	}
}

func TestDiagnosticsCarryPosition(t *testing.T) {
	_, diags := mustFail(t, "x = 1;\ny = ]")
	d := diags[0]
	if d.Span == nil || d.Span.StartLine != 2 || d.Span.StartCol != 5 {
		t.Errorf("unexpected span: %+v", d.Span)
	}
	if d.Span.File != "test.lam" {
		t.Errorf("unexpected file: %q", d.Span.File)
	}
}

func TestLexErrorsSurfaceAsDiagnostics(t *testing.T) {
	_, diags := mustFail(t, "x = 1 @ 2")
	if len(diags) != 1 || diags[0].Code != diagnostics.ELex {
		t.Fatalf("expected a single E_LEX diagnostic, got %+v", diags)
	}
}

func TestUnexpectedEndOfInput(t *testing.T) {
	_, diags := mustFail(t, "1 +")
	if diags[0].Message != "unexpected end of input" {
		t.Errorf("unexpected message: %s", diags[0].Message)
	}
}

// ---- 9. Incomplete input ----

func TestIsIncomplete(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"{ 1;", true},
		{"f(1,", true},
		{"lambda (x)", true},
		{`"open string`, true},
		{"if x then", true},
		{"1 +", true},
		{"1 + 2;", false},
		{"1 2", false},
		{"x @", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := parser.IsIncomplete(tt.source); got != tt.want {
				t.Errorf("IsIncomplete(%q) = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}

// ---- 10. Spans ----

func TestSpansCoverExpression(t *testing.T) {
	prog := mustParse(t, "  a + b * c")
	bin := prog.Exprs[0].(*ast.Binary)
	if bin.Span.StartCol != 3 || bin.Span.EndCol != 12 {
		t.Errorf("unexpected span: %+v", bin.Span)
	}
}
