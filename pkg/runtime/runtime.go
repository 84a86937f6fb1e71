// Package runtime wires the lam components together for the CLI and REPL.
package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thomasrohde/lam/pkg/ast"
	"github.com/thomasrohde/lam/pkg/capabilities"
	"github.com/thomasrohde/lam/pkg/diagnostics"
	"github.com/thomasrohde/lam/pkg/evaluator"
	"github.com/thomasrohde/lam/pkg/formatter"
	"github.com/thomasrohde/lam/pkg/parser"
	"github.com/thomasrohde/lam/pkg/prelude"
	"github.com/thomasrohde/lam/pkg/validator"
)

// Result holds the outcome of a file-mode run.
type Result struct {
	// Value is the value of the last top-level expression, or false for an
	// empty program.
	Value evaluator.Value
	Exprs int
}

// Outcome is the result of one top-level expression in interactive mode.
// Exactly one of Value and Err is set.
type Outcome struct {
	Span  ast.Span
	Value evaluator.Value
	Err   error
}

// Runtime owns the global scope. Definitions persist across Run and Eval
// calls on the same Runtime.
type Runtime struct {
	prelude *prelude.Registry
	policy  *capabilities.Policy
	capture evaluator.CaptureMode
	out     io.Writer
	runID   string
	trace   func(event evaluator.TraceEvent)

	ev      *evaluator.Evaluator
	globals *evaluator.Env
	bound   []string
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithPrelude replaces the default prelude registry.
func WithPrelude(r *prelude.Registry) Option {
	return func(rt *Runtime) {
		rt.prelude = r
	}
}

// WithPolicy sets the capability policy. nil allows everything.
func WithPolicy(p *capabilities.Policy) Option {
	return func(rt *Runtime) {
		rt.policy = p
	}
}

// WithCapture sets the closure capture mode.
func WithCapture(mode evaluator.CaptureMode) Option {
	return func(rt *Runtime) {
		rt.capture = mode
	}
}

// WithOutput sets where the default prelude writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.out = w
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// New creates a new Runtime with the given options and seeds the global
// scope with every prelude function the policy allows.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		capture: evaluator.CaptureSnapshot,
		out:     os.Stdout,
		runID:   "cli",
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.prelude == nil {
		rt.prelude = prelude.Default(prelude.Host{Out: rt.out})
	}

	rt.ev = evaluator.New(evaluator.Options{
		Capture: rt.capture,
		Trace:   rt.trace,
		RunID:   rt.runID,
	})
	rt.globals = evaluator.NewEnv(nil)
	rt.bound = rt.prelude.Install(rt.globals, rt.policy)
	return rt
}

// Globals returns every name bound in the global scope, sorted.
func (rt *Runtime) Globals() []string {
	return rt.globals.Names()
}

// Prelude returns the names of the installed prelude functions.
func (rt *Runtime) Prelude() []string {
	return rt.bound
}

// Run is file mode: parse the whole source, then evaluate the top-level
// expressions in order and stop at the first runtime error. Any syntax
// diagnostic aborts before evaluation with a *DiagnosticError.
// ctx is only consulted between top-level expressions.
func (rt *Runtime) Run(ctx context.Context, source, filename string) (*Result, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}

	span := program.Span
	rt.ev.Emit(evaluator.TraceRunStart, &span, map[string]any{"file": filename, "exprs": len(program.Exprs)})

	result := &Result{Value: evaluator.False}
	for _, expr := range program.Exprs {
		if err := ctx.Err(); err != nil {
			rt.ev.Emit(evaluator.TraceRunEnd, &span, map[string]any{"ok": false})
			return result, fmt.Errorf("run %s: %w", filename, err)
		}

		val, err := rt.evalTopLevel(expr)
		if err != nil {
			rt.ev.Emit(evaluator.TraceRunEnd, &span, map[string]any{"ok": false})
			return result, err
		}
		result.Value = val
		result.Exprs++
	}

	rt.ev.Emit(evaluator.TraceRunEnd, &span, map[string]any{"ok": true})
	return result, nil
}

// Eval is interactive mode: every top-level expression yields an Outcome
// and a runtime error does not stop the ones after it. Syntax diagnostics
// still abort the whole input.
func (rt *Runtime) Eval(ctx context.Context, source, filename string) ([]Outcome, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}

	outcomes := make([]Outcome, 0, len(program.Exprs))
	for _, expr := range program.Exprs {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		val, err := rt.evalTopLevel(expr)
		outcomes = append(outcomes, Outcome{Span: expr.NodeSpan(), Value: val, Err: err})
	}
	return outcomes, nil
}

func (rt *Runtime) evalTopLevel(expr ast.Expr) (evaluator.Value, error) {
	span := expr.NodeSpan()
	rt.ev.Emit(evaluator.TraceExprStart, &span, map[string]any{"kind": expr.Kind()})

	val, err := rt.ev.Eval(expr, rt.globals)
	if err != nil {
		data := map[string]any{"message": err.Error()}
		if re, ok := err.(*evaluator.RuntimeError); ok {
			data["code"] = re.Code
		}
		rt.ev.Emit(evaluator.TraceError, &span, data)
		return nil, err
	}

	rt.ev.Emit(evaluator.TraceExprEnd, &span, map[string]any{"type": evaluator.TypeName(val)})
	return val, nil
}

// Check parses and lints a program without evaluating it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(program, rt.Globals())
}

// Format parses and formats a program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
