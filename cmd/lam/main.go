// Command lam runs lam programs and the interactive REPL.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thomasrohde/lam/pkg/ast"
	"github.com/thomasrohde/lam/pkg/config"
	"github.com/thomasrohde/lam/pkg/diagnostics"
	"github.com/thomasrohde/lam/pkg/evaluator"
	"github.com/thomasrohde/lam/pkg/formatter"
	"github.com/thomasrohde/lam/pkg/help"
	"github.com/thomasrohde/lam/pkg/lexer"
	"github.com/thomasrohde/lam/pkg/parser"
	"github.com/thomasrohde/lam/pkg/prelude"
	"github.com/thomasrohde/lam/pkg/runtime"
)

const usage = "usage: lam [command] [options]\ncommands: run, check, fmt, tokens, ast, trace, repl, config, help"

// app carries the process surroundings so commands can run against buffers
// in tests.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cwd    string
	home   string
}

func main() {
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, cwd: cwd, home: home}
	os.Exit(a.main(os.Args[1:]))
}

func (a *app) main(args []string) int {
	if len(args) == 0 {
		return a.cmdRepl(nil)
	}

	cmd := args[0]
	switch cmd {
	case "run":
		return a.cmdRun(args[1:])
	case "check":
		return a.cmdCheck(args[1:])
	case "fmt":
		return a.cmdFmt(args[1:])
	case "tokens":
		return a.cmdTokens(args[1:])
	case "ast":
		return a.cmdAST(args[1:])
	case "trace":
		return a.cmdTrace(args[1:])
	case "repl":
		return a.cmdRepl(args[1:])
	case "config":
		return a.cmdConfig(args[1:])
	case "help", "--help", "-h":
		return a.cmdHelp(args[1:])
	case "version", "--version":
		fmt.Fprintf(a.stdout, "lam %s\n", help.Version)
		return 0
	default:
		// lam FILE is shorthand for lam run FILE
		if !strings.HasPrefix(cmd, "-") || cmd == "-" {
			return a.cmdRun(args)
		}
		fmt.Fprintf(a.stderr, "Unknown command: %s\n%s\n", cmd, usage)
		return 1
	}
}

// runFlags are the options shared by commands that evaluate code.
type runFlags struct {
	file     string
	pretty   bool
	json     bool
	trace    string
	capture  string
	hasFile  bool
	badFlags []string
}

func parseRunFlags(args []string) runFlags {
	var f runFlags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			f.pretty = true
		case "--json":
			f.json = true
		case "--trace":
			if i+1 < len(args) {
				i++
				f.trace = args[i]
			} else {
				f.badFlags = append(f.badFlags, "--trace requires a file")
			}
		case "--capture":
			if i+1 < len(args) {
				i++
				f.capture = args[i]
			} else {
				f.badFlags = append(f.badFlags, "--capture requires snapshot or shared")
			}
		default:
			if args[i] == "-" || !strings.HasPrefix(args[i], "-") {
				f.file = args[i]
				f.hasFile = true
			} else {
				f.badFlags = append(f.badFlags, fmt.Sprintf("unknown flag %s", args[i]))
			}
		}
	}
	return f
}

// loadConfig reads the config file and applies command-line overrides.
func (a *app) loadConfig(f runFlags) (*config.Config, bool) {
	cfg, err := config.Load(a.cwd, a.home)
	if err != nil {
		a.report(diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, ""), f.pretty)
		return nil, false
	}
	if f.pretty {
		cfg.Pretty = true
	}
	if f.trace != "" {
		cfg.TraceFile = f.trace
	}
	if f.capture != "" {
		cfg.Capture = f.capture
		if err := cfg.Validate(); err != nil {
			a.report(diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, ""), cfg.Pretty)
			return nil, false
		}
	}
	return cfg, true
}

// newRuntime builds a Runtime from cfg. The returned closer flushes the
// trace file, if any.
func (a *app) newRuntime(cfg *config.Config, runID string) (*runtime.Runtime, func() error, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, nil, err
	}
	opts := []runtime.Option{
		runtime.WithPolicy(policy),
		runtime.WithCapture(cfg.CaptureMode()),
		runtime.WithOutput(a.stdout),
		runtime.WithRunID(runID),
	}

	closer := func() error { return nil }
	if cfg.TraceFile != "" {
		sink, err := openTraceSink(cfg.TraceFile)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, runtime.WithTrace(sink.Emit))
		closer = sink.Close
	}
	return runtime.New(opts...), closer, nil
}

func (a *app) cmdRun(args []string) int {
	f := parseRunFlags(args)
	if !f.hasFile || len(f.badFlags) > 0 {
		for _, msg := range f.badFlags {
			fmt.Fprintf(a.stderr, "error: %s\n", msg)
		}
		fmt.Fprintln(a.stderr, "usage: lam run <file|-> [--pretty] [--json] [--trace <file>] [--capture snapshot|shared]")
		return 1
	}

	cfg, ok := a.loadConfig(f)
	if !ok {
		return 1
	}

	source, filename, exitCode := a.readSource(f.file, cfg.Pretty)
	if exitCode != 0 {
		return exitCode
	}

	rt, closeTrace, err := a.newRuntime(cfg, newRunID())
	if err != nil {
		a.report(diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, ""), cfg.Pretty)
		return 1
	}

	result, execErr := rt.Run(context.Background(), source, filename)
	if err := closeTrace(); err != nil {
		fmt.Fprintf(a.stderr, "warning: trace: %s\n", err)
	}

	if execErr != nil {
		return a.reportError(execErr, cfg.Pretty)
	}

	if f.json {
		jsonBytes, err := evaluator.ValueToJSON(result.Value)
		if err != nil {
			fmt.Fprintf(a.stderr, "error serializing result: %s\n", err)
			return 4
		}
		fmt.Fprintln(a.stdout, string(jsonBytes))
	}
	return 0
}

func (a *app) cmdCheck(args []string) int {
	f := parseRunFlags(args)
	if !f.hasFile {
		fmt.Fprintln(a.stderr, "usage: lam check <file|-> [--pretty]")
		return 1
	}
	cfg, ok := a.loadConfig(f)
	if !ok {
		return 1
	}

	source, filename, exitCode := a.readSource(f.file, cfg.Pretty)
	if exitCode != 0 {
		return exitCode
	}

	// Checking evaluates nothing, so it never traces.
	checkCfg := *cfg
	checkCfg.TraceFile = ""
	rt, _, err := a.newRuntime(&checkCfg, "check")
	if err != nil {
		a.report(diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, ""), cfg.Pretty)
		return 1
	}
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics(diags, cfg.Pretty))
		return 2
	}

	// Valid program
	if cfg.Pretty {
		fmt.Fprintln(a.stdout, "No errors found.")
	} else {
		fmt.Fprintln(a.stdout, "[]")
	}
	return 0
}

func (a *app) cmdFmt(args []string) int {
	var file string
	write := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--write":
			write = true
		default:
			if args[i] == "-" || !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(a.stderr, "usage: lam fmt <file|-> [--write]")
		return 1
	}
	if write && file == "-" {
		fmt.Fprintln(a.stderr, "error: --write needs a file, not stdin")
		return 1
	}

	source, filename, exitCode := a.readSource(file, false)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New(runtime.WithOutput(io.Discard))
	formatted, err := rt.Format(source, filename)
	if err != nil {
		return a.reportError(err, false)
	}

	// Warn about comments
	if formatter.HasComments(source) {
		fmt.Fprintln(a.stderr, "warning: comments are not preserved by the formatter")
	}

	if write {
		if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
			a.report(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot write file: %s", err), nil, ""), false)
			return 1
		}
		return 0
	}
	fmt.Fprint(a.stdout, formatted)
	return 0
}

func (a *app) cmdTokens(args []string) int {
	f := parseRunFlags(args)
	if !f.hasFile {
		fmt.Fprintln(a.stderr, "usage: lam tokens <file|->")
		return 1
	}
	source, filename, exitCode := a.readSource(f.file, f.pretty)
	if exitCode != 0 {
		return exitCode
	}

	s := lexer.NewScanner(source, filename)
	for {
		tok, err := s.Next()
		if err != nil {
			var le *lexer.LexError
			if errors.As(err, &le) {
				a.report(le.Diag, f.pretty)
			} else {
				a.report(diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, ""), f.pretty)
			}
			return 2
		}
		if tok.Type == lexer.TokEOF {
			return 0
		}
		fmt.Fprintf(a.stdout, "%d:%d\t%s\t%s\n", tok.Span.StartLine, tok.Span.StartCol, tok.Type, tok.Value)
	}
}

func (a *app) cmdAST(args []string) int {
	f := parseRunFlags(args)
	if !f.hasFile {
		fmt.Fprintln(a.stderr, "usage: lam ast <file|-> [--pretty]")
		return 1
	}
	source, filename, exitCode := a.readSource(f.file, f.pretty)
	if exitCode != 0 {
		return exitCode
	}

	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics(diags, f.pretty))
		return 2
	}
	if len(program.Exprs) > 0 {
		fmt.Fprintln(a.stdout, ast.DumpProgram(program))
	}
	return 0
}

func (a *app) cmdTrace(args []string) int {
	var file string
	textOutput := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			textOutput = false
		case "--text":
			textOutput = true
		default:
			if !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(a.stderr, "usage: lam trace <file.jsonl> [--json|--text]")
		return 1
	}

	// Read and parse NDJSON trace file
	r, err := os.Open(file)
	if err != nil {
		a.report(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, ""), textOutput)
		return 1
	}
	defer r.Close()

	summary, err := computeTraceSummary(r)
	if err != nil {
		a.report(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", err), nil, ""), textOutput)
		return 1
	}

	if textOutput {
		printTraceSummaryText(a.stdout, summary)
		return 0
	}
	return a.printJSON(summary)
}

func (a *app) cmdHelp(args []string) int {
	showIndex := false
	topic := ""
	for _, arg := range args {
		if arg == "--index" {
			showIndex = true
		} else if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if showIndex {
		if topic != "" && topic != "prelude" {
			fmt.Fprintln(a.stderr, "error: --index is only supported for the prelude topic")
			return 1
		}
		fmt.Fprint(a.stdout, help.PreludeIndex(prelude.Default(prelude.Host{})))
		return 0
	}

	if topic == "" {
		fmt.Fprint(a.stdout, help.QUICKREF)
		return 0
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(a.stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return 1
	}
	fmt.Fprint(a.stdout, content)
	return 0
}

func (a *app) cmdConfig(args []string) int {
	f := parseRunFlags(args)
	if len(f.badFlags) > 0 || f.hasFile {
		fmt.Fprintln(a.stderr, "usage: lam config [--pretty] [--trace <file>] [--capture snapshot|shared]")
		return 1
	}
	cfg, ok := a.loadConfig(f)
	if !ok {
		return 1
	}

	out, err := cfg.Marshal()
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %s\n", err)
		return 1
	}
	source := cfg.Source
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintf(a.stdout, "# source: %s\n%s", source, out)
	return 0
}

// readSource reads file, or stdin for "-".
func (a *app) readSource(file string, pretty bool) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			a.report(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read stdin: %s", err), nil, ""), pretty)
			return "", "", 1
		}
		return string(data), "<stdin>", 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		a.report(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, ""), pretty)
		return "", "", 1
	}
	return string(source), file, 0
}

func (a *app) report(d diagnostics.Diagnostic, pretty bool) {
	fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{d}, pretty))
}

// reportError prints a Run failure and returns its exit code.
func (a *app) reportError(err error, pretty bool) int {
	var diagErr *runtime.DiagnosticError
	if errors.As(err, &diagErr) {
		fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, pretty))
		return 2
	}
	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) {
		a.report(rtErr.Diagnostic(), pretty)
		return exitCodeForDiag(rtErr.Code)
	}
	fmt.Fprintln(a.stderr, err.Error())
	return 1
}

func exitCodeForDiag(code string) int {
	switch {
	case diagnostics.IsSyntax(code):
		return 2
	case code == diagnostics.EIO, code == diagnostics.EConfig:
		return 1
	default:
		return 4
	}
}
