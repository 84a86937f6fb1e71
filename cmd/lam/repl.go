package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/thomasrohde/lam/pkg/diagnostics"
	"github.com/thomasrohde/lam/pkg/evaluator"
	"github.com/thomasrohde/lam/pkg/help"
	"github.com/thomasrohde/lam/pkg/parser"
	"github.com/thomasrohde/lam/pkg/runtime"
)

const (
	promptCont = "... "
	replFile   = "<repl>"
)

func (a *app) cmdRepl(args []string) int {
	f := parseRunFlags(args)
	if f.hasFile || len(f.badFlags) > 0 {
		fmt.Fprintln(a.stderr, "usage: lam repl [--pretty] [--trace <file>] [--capture snapshot|shared]")
		return 1
	}
	cfg, ok := a.loadConfig(f)
	if !ok {
		return 1
	}

	rt, closeTrace, err := a.newRuntime(cfg, newRunID())
	if err != nil {
		a.report(diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, ""), cfg.Pretty)
		return 1
	}
	defer func() {
		if err := closeTrace(); err != nil {
			fmt.Fprintf(a.stderr, "warning: trace: %s\n", err)
		}
	}()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completer(rt))

	histPath := cfg.HistoryPath(a.home)
	if hf, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(hf)
		_ = hf.Close()
	}
	defer func() {
		if hf, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(hf)
			_ = hf.Close()
		}
	}()

	fmt.Fprintf(a.stdout, "lam %s (capture: %s). Type :help for commands, :quit to exit.\n", help.Version, cfg.CaptureMode())

	ctx := context.Background()
	for {
		code, ok := readByParseProbe(ln, cfg.Prompt, promptCont)
		if !ok {
			fmt.Fprintln(a.stdout)
			return 0
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if quit := replCommand(a.stdout, rt, trimmed); quit {
				return 0
			}
			continue
		}

		evalAndPrint(ctx, a.stdout, rt, code)
	}
}

// readByParseProbe keeps prompting while the collected input is an
// incomplete program. It returns false at end of input. Ctrl-C abandons
// what was typed so far.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if !parser.IsIncomplete(src) {
			return src, true
		}
	}
}

// evalAndPrint evaluates one REPL input. Each top-level expression prints
// its value or its error; a failure does not stop the ones after it.
func evalAndPrint(ctx context.Context, w io.Writer, rt *runtime.Runtime, code string) {
	outcomes, err := rt.Eval(ctx, code, replFile)
	if err != nil {
		var diagErr *runtime.DiagnosticError
		if errors.As(err, &diagErr) {
			fmt.Fprintln(w, diagnostics.FormatDiagnostics(diagErr.Diagnostics, true))
			return
		}
		fmt.Fprintf(w, "ERROR: %s\n", err)
		return
	}

	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "RUNTIME ERROR: %s\n", o.Err)
			continue
		}
		fmt.Fprintf(w, "=> %s\n", evaluator.Format(o.Value))
	}
}

// replCommand handles a :command and reports whether the session should end.
func replCommand(w io.Writer, rt *runtime.Runtime, cmd string) bool {
	fields := strings.Fields(cmd)
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q", ":exit":
		return true
	case ":globals":
		fmt.Fprintln(w, strings.Join(rt.Globals(), " "))
	case ":help":
		if len(fields) > 1 {
			_, content, err := help.MatchTopic(fields[1])
			if err != nil {
				fmt.Fprintln(w, err)
				return false
			}
			fmt.Fprint(w, content)
			return false
		}
		fmt.Fprintln(w, ":quit            leave the REPL (also Ctrl-D)")
		fmt.Fprintln(w, ":globals         list the names bound in the global scope")
		fmt.Fprintln(w, ":help [topic]    this text, or a help topic: "+strings.Join(help.TopicList, ", "))
	default:
		fmt.Fprintln(w, "unknown command. Type :quit to exit.")
	}
	return false
}

func isNameRune(r byte) bool {
	return r == '_' || r == '?' || r == '!' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// completer completes the name under the cursor from the global scope,
// which grows as the session defines things.
func completer(rt *runtime.Runtime) liner.Completer {
	return func(line string) []string {
		start := len(line)
		for start > 0 && isNameRune(line[start-1]) {
			start--
		}
		prefix := line[start:]
		if prefix == "" {
			return nil
		}

		var out []string
		for _, name := range rt.Globals() {
			if strings.HasPrefix(name, prefix) {
				out = append(out, line[:start]+name)
			}
		}
		return out
	}
}
