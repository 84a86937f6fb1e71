package evaluator

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/thomasrohde/lam/pkg/ast"
	"github.com/thomasrohde/lam/pkg/diagnostics"
)

// CaptureMode selects what a lambda remembers of its defining scope.
type CaptureMode int

const (
	// CaptureSnapshot freezes the bindings visible when the lambda is
	// evaluated. Later assignments outside the closure are not seen, so a
	// global function cannot call itself by name.
	CaptureSnapshot CaptureMode = iota

	// CaptureShared keeps a reference to the defining scope. Later
	// assignments are visible and self-recursion through a global works.
	CaptureShared
)

func (m CaptureMode) String() string {
	switch m {
	case CaptureSnapshot:
		return "snapshot"
	case CaptureShared:
		return "shared"
	default:
		return fmt.Sprintf("capture(%d)", int(m))
	}
}

// ParseCaptureMode accepts "snapshot" or "shared".
func ParseCaptureMode(s string) (CaptureMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "snapshot":
		return CaptureSnapshot, nil
	case "shared":
		return CaptureShared, nil
	}
	return CaptureSnapshot, fmt.Errorf("unknown capture mode %q (want snapshot or shared)", s)
}

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart  TraceEventType = "run_start"
	TraceRunEnd    TraceEventType = "run_end"
	TraceExprStart TraceEventType = "expr_start"
	TraceExprEnd   TraceEventType = "expr_end"
	TraceCallStart TraceEventType = "call_start"
	TraceCallEnd   TraceEventType = "call_end"
	TraceError     TraceEventType = "error"
)

// TraceEvent represents a single trace event emitted during evaluation.
type TraceEvent struct {
	Timestamp string         `json:"ts"`
	RunID     string         `json:"runId"`
	Event     TraceEventType `json:"event"`
	Span      *ast.Span      `json:"span,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Options configures an Evaluator.
type Options struct {
	Capture CaptureMode
	Trace   func(event TraceEvent)
	RunID   string
}

// RuntimeError represents a failure during evaluation.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span

	// Err is the host error behind an E_NATIVE failure.
	Err error
}

func (e *RuntimeError) Error() string {
	return e.Message
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// Diagnostic converts the error for reporting.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

// Evaluator walks expression trees. It holds no program state of its own;
// all bindings live in the Env passed to Eval.
type Evaluator struct {
	opts Options
}

// New creates an Evaluator.
func New(opts Options) *Evaluator {
	return &Evaluator{opts: opts}
}

// Evaluate evaluates expr in env with default options.
func Evaluate(expr ast.Expr, env *Env) (Value, error) {
	return New(Options{}).Eval(expr, env)
}

// Emit sends a trace event if tracing is enabled.
func (ev *Evaluator) Emit(event TraceEventType, span *ast.Span, data map[string]any) {
	if ev.opts.Trace == nil {
		return
	}
	ev.opts.Trace(TraceEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     ev.opts.RunID,
		Event:     event,
		Span:      span,
		Data:      data,
	})
}

func errAt(code string, span ast.Span, format string, args ...any) error {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Span: &span}
}

// locate fills in the span of a RuntimeError raised without one.
func locate(err error, span ast.Span) error {
	var re *RuntimeError
	if errors.As(err, &re) && re.Span == nil {
		re.Span = &span
	}
	return err
}

// Eval evaluates expr in env.
func (ev *Evaluator) Eval(expr ast.Expr, env *Env) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return NewNumber(e.Value), nil

	case *ast.StringLit:
		return NewString(e.Value), nil

	case *ast.BoolLit:
		return NewBool(e.Value), nil

	case *ast.Variable:
		val, err := env.Get(e.Name)
		if err != nil {
			return nil, locate(err, e.Span)
		}
		return val, nil

	case *ast.Assign:
		return ev.evalAssign(e, env)

	case *ast.Binary:
		return ev.evalBinary(e, env)

	case *ast.If:
		return ev.evalIf(e, env)

	case *ast.Lambda:
		captured := env
		if ev.opts.Capture == CaptureSnapshot {
			captured = env.Snapshot()
		}
		return Closure{Params: e.Params, Body: e.Body, Env: captured}, nil

	case *ast.Call:
		return ev.evalCall(e, env)

	case *ast.Block:
		var result Value = False
		for _, sub := range e.Exprs {
			val, err := ev.Eval(sub, env)
			if err != nil {
				return nil, err
			}
			result = val
		}
		return result, nil

	case *ast.ErrorExpr:
		return nil, errAt(diagnostics.EInternal, e.Span,
			"internal interpreter error: cannot evaluate an error expression")

	case nil:
		return nil, &RuntimeError{Code: diagnostics.EInternal, Message: "internal interpreter error: nil expression"}

	default:
		return nil, errAt(diagnostics.EInternal, expr.NodeSpan(),
			"internal interpreter error: unsupported expression type %T", expr)
	}
}

func (ev *Evaluator) evalAssign(e *ast.Assign, env *Env) (Value, error) {
	target, ok := e.Target.(*ast.Variable)
	if !ok {
		return nil, errAt(diagnostics.EAssignTarget, e.Span,
			"cannot assign to %s", strings.ToLower(e.Target.Kind()))
	}

	val, err := ev.Eval(e.Value, env)
	if err != nil {
		return nil, err
	}
	val, err = env.Assign(target.Name, val)
	if err != nil {
		return nil, locate(err, e.Span)
	}
	return val, nil
}

func (ev *Evaluator) evalBinary(e *ast.Binary, env *Env) (Value, error) {
	left, err := ev.Eval(e.Left, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpAnd:
		if !Truthy(left) {
			return False, nil
		}
		return ev.Eval(e.Right, env)
	case ast.OpOr:
		if Truthy(left) {
			return left, nil
		}
		return ev.Eval(e.Right, env)
	}

	right, err := ev.Eval(e.Right, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.OpEqEq:
		return NewBool(Equal(left, right)), nil
	case ast.OpNeq:
		return NewBool(!Equal(left, right)), nil

	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod,
		ast.OpLt, ast.OpGt, ast.OpLtEq, ast.OpGtEq:
		lNum, lOk := left.(Number)
		rNum, rOk := right.(Number)
		if !lOk || !rOk {
			return nil, errAt(diagnostics.EType, e.Span,
				"expected two numbers, got %s %s %s", TypeName(left), e.Op, TypeName(right))
		}
		return applyNumeric(e.Op, lNum.Value, rNum.Value), nil
	}

	return nil, errAt(diagnostics.EOperator, e.Span, "cannot apply binary operator %s", e.Op)
}

// applyNumeric follows IEEE-754: x/0 is ±inf, 0/0 and x%0 are NaN.
func applyNumeric(op ast.BinaryOp, a, b float64) Value {
	switch op {
	case ast.OpAdd:
		return NewNumber(a + b)
	case ast.OpSub:
		return NewNumber(a - b)
	case ast.OpMul:
		return NewNumber(a * b)
	case ast.OpDiv:
		return NewNumber(a / b)
	case ast.OpMod:
		return NewNumber(math.Mod(a, b))
	case ast.OpLt:
		return NewBool(a < b)
	case ast.OpGt:
		return NewBool(a > b)
	case ast.OpLtEq:
		return NewBool(a <= b)
	default:
		return NewBool(a >= b)
	}
}

func (ev *Evaluator) evalIf(e *ast.If, env *Env) (Value, error) {
	cond, err := ev.Eval(e.Cond, env)
	if err != nil {
		return nil, err
	}
	if Truthy(cond) {
		return ev.Eval(e.Then, env)
	}
	if e.Else == nil {
		return False, nil
	}
	return ev.Eval(e.Else, env)
}

func (ev *Evaluator) evalCall(e *ast.Call, env *Env) (Value, error) {
	callee, err := ev.Eval(e.Callee, env)
	if err != nil {
		return nil, err
	}
	switch callee.(type) {
	case Closure, Native:
	default:
		return nil, errAt(diagnostics.ENotCallable, e.Span, "cannot call %s", TypeName(callee))
	}

	args := make([]Value, 0, len(e.Args))
	for _, arg := range e.Args {
		val, err := ev.Eval(arg, env)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}

	label := calleeLabel(callee)
	if v, ok := e.Callee.(*ast.Variable); ok {
		label = v.Name
	}
	span := e.Span
	return ev.apply(callee, args, label, &span)
}

// Apply calls a closure or native with already evaluated arguments.
func (ev *Evaluator) Apply(fn Value, args []Value) (Value, error) {
	return ev.apply(fn, args, calleeLabel(fn), nil)
}

func calleeLabel(fn Value) string {
	if n, ok := fn.(Native); ok {
		return n.Name
	}
	return "<lambda>"
}

func (ev *Evaluator) apply(fn Value, args []Value, label string, span *ast.Span) (Value, error) {
	ev.Emit(TraceCallStart, span, map[string]any{"callee": label, "args": len(args)})

	var result Value
	var err error
	switch f := fn.(type) {
	case Closure:
		result, err = ev.callClosure(f, args, span)
	case Native:
		result, err = ev.callNative(f, args, span)
	default:
		err = &RuntimeError{Code: diagnostics.ENotCallable, Message: fmt.Sprintf("cannot call %s", TypeName(fn)), Span: span}
	}

	data := map[string]any{"callee": label}
	if err != nil {
		data["error"] = err.Error()
	}
	ev.Emit(TraceCallEnd, span, data)

	return result, err
}

func (ev *Evaluator) callClosure(f Closure, args []Value, span *ast.Span) (Value, error) {
	if len(args) < len(f.Params) {
		return nil, &RuntimeError{
			Code:    diagnostics.EArity,
			Message: fmt.Sprintf("too few arguments (given %d, expected %d)", len(args), len(f.Params)),
			Span:    span,
		}
	}

	// Under snapshot capture every call starts from the bindings frozen at
	// creation, so writes to captured names die with the call.
	env := f.Env
	if ev.opts.Capture == CaptureSnapshot {
		env = env.Snapshot()
	}

	// Extra arguments are ignored; a repeated parameter name takes the
	// later argument.
	scope := env.Child()
	for i, name := range f.Params {
		scope.Define(name, args[i])
	}
	return ev.Eval(f.Body, scope)
}

func (ev *Evaluator) callNative(f Native, args []Value, span *ast.Span) (Value, error) {
	result, err := f.Fn(ev, args)
	if err == nil {
		if result == nil {
			return False, nil
		}
		return result, nil
	}

	// Failures from closures the native called back into pass through.
	var re *RuntimeError
	if errors.As(err, &re) {
		return nil, err
	}
	return nil, &RuntimeError{
		Code:    diagnostics.ENative,
		Message: fmt.Sprintf("%s: %s", f.Name, err.Error()),
		Span:    span,
		Err:     err,
	}
}
