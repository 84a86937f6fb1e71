// Package diagnostics defines lam diagnostic types for syntax, lint and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thomasrohde/lam/pkg/ast"
)

// Diagnostic code constants.
const (
	// Syntax errors
	ELex   = "E_LEX"
	EParse = "E_PARSE"

	// Runtime errors
	EUnbound      = "E_UNBOUND"
	EAssignTarget = "E_ASSIGN_TARGET"
	EType         = "E_TYPE"
	EOperator     = "E_OPERATOR"
	ENotCallable  = "E_NOT_CALLABLE"
	EArity        = "E_ARITY"
	EInternal     = "E_INTERNAL"
	ENative       = "E_NATIVE"

	// Host errors
	EIO     = "E_IO"
	EConfig = "E_CONFIG"
)

// Diagnostic represents a syntax, lint, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// IsSyntax reports whether the code belongs to the scanner/parser family.
func IsSyntax(code string) bool {
	return code == ELex || code == EParse
}

// Location renders the span as file:line:col.
func Location(span *ast.Span) string {
	if span == nil {
		return "<unknown>"
	}
	file := span.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", file, span.StartLine, span.StartCol)
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, Location(d.Span))
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
