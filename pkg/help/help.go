// Package help holds the text behind `lam help`.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thomasrohde/lam/pkg/prelude"
)

// Version is the language version reported by the CLI.
const Version = "v0.1"

// QUICKREF is printed by `lam help` with no topic.
var QUICKREF = `lam ` + Version + ` - a small expression language

USAGE
  lam                      start the REPL
  lam run FILE|-           evaluate a program
  lam check FILE           parse and lint without evaluating
  lam fmt [--write] FILE   print canonical source
  lam tokens FILE          dump the token stream
  lam ast FILE             dump the expression tree
  lam trace FILE           summarize a JSONL trace
  lam config               print the effective configuration
  lam help [topic]         this text, or a topic below

EVERYTHING IS AN EXPRESSION
  x = 1; y = x + 2;             assignment yields the assigned value
  if y > 2 then "big" else "small";
  { a = 1; a * 10 };            block: value of the last expression
  add = lambda (a, b) a + b;    also written λ (a, b) a + b
  add(1, 2);

TOPICS
  syntax       tokens, precedence, parsing rules
  values       number, string, boolean, closure, native
  scoping      assignment, blocks and the global scope
  closures     capture modes and calls
  prelude      the built-in functions (lam help prelude --index)
  caps         capability policy for the prelude
  diagnostics  error codes and exit codes
  repl         interactive mode
  config       .lam.yaml settings
  examples     short complete programs
`

// Topics maps topic names to their help text.
var Topics = map[string]string{
	"syntax": `SYNTAX
  A program is a sequence of expressions separated by ';'.
  Trailing ';' and blank lines are allowed. '#' starts a comment to end of line.

  Literals   123  4.5  "text"  true  false
  Strings    backslash takes the next character literally: "a\"b"
  Names      letters, digits, '_', '?', '!', '-', '<', '>', '=' (not first)
  Keywords   if then else true false lambda λ

PRECEDENCE (loosest first)
  =                      right-assoc
  ||
  &&
  < > <= >= == !=
  + -
  * / %
  call f(x)(y)           binds tightest

  Operators are left-associative except '='. There are no unary operators.
  if C then T else E     'then' may be omitted when T starts with '{'
  {}                     is false; { e } is just e
`,

	"values": `VALUES
  number          64-bit float; 1/0 is inf, 0/0 is NaN
  string          immutable text
  boolean         true, false
  closure         a lambda together with its captured scope
  native          a prelude function

TRUTHINESS
  false is the only falsy value. 0 and "" are truthy.

EQUALITY
  == compares by type and value. Closures are equal when they have the
  same parameters and body and captured equal bindings.
  Natives are equal when they have the same name.

ARITHMETIC
  + - * / % need two numbers. Strings do not concatenate with +; use concat.
`,

	"scoping": `SCOPING
  Assignment updates the nearest scope that already binds the name.
  Otherwise it defines the name, but only in the global scope:
  inside a function body, assigning an unbound name is an error.

  Blocks do not open a scope. A call opens one for its parameters.

    counter = 0;
    bump = lambda () counter = counter + 1;
    bump(); bump();    # 2 with --capture shared

  Under snapshot capture every call starts from the bindings frozen at
  creation: bump() returns 1 each time and the global stays 0.
`,

	"closures": `CLOSURES
  lambda (params) body creates a closure.

CALLS
  Too few arguments is an error (E_ARITY). Extra arguments are ignored.
  Arguments are evaluated left to right after the callee.

CAPTURE MODES (--capture, or capture: in .lam.yaml)
  snapshot  the closure sees bindings as they were when it was created
            (default). Globals defined later are not visible.
  shared    the closure shares its defining scope and sees later changes.
`,

	"prelude": `PRELUDE
  Built-in functions bound in the global scope before the program runs.
  Which ones are bound depends on the capability policy (lam help caps).
  Run 'lam help prelude --index' for the full list.

  print(args...)   write the arguments joined by ", "
  puts(args...)    print plus a newline
  str, concat      printed forms as strings
  max, min         numeric extremes
  sleep, time      pause, and measure a function call
`,

	"caps": `CAPABILITIES
  Every prelude function declares one capability:
    io     print, puts
    time   sleep, time
    pure   str, concat, max, min

  .lam.yaml:
    capabilities:
      allow: [pure, io]   # empty means all
      deny: [time]        # deny wins over allow

  A denied function is simply not bound; calling it fails with E_UNBOUND.
`,

	"diagnostics": `DIAGNOSTICS
  Syntax (exit 2)
    E_LEX            bad character or unterminated string
    E_PARSE          unexpected token or end of input

  Runtime (exit 4)
    E_UNBOUND        undefined variable
    E_ASSIGN_TARGET  left of '=' is not a variable
    E_TYPE           operator applied to the wrong types
    E_OPERATOR       unknown binary operator
    E_NOT_CALLABLE   calling something that is not a function
    E_ARITY          too few arguments
    E_NATIVE         a prelude function rejected its arguments
    E_INTERNAL       malformed tree

  Host (exit 1)
    E_IO             reading or writing a file failed
    E_CONFIG         invalid configuration

  Diagnostics are JSON by default; --pretty prints
    error[CODE]: message
      --> file:line:col
`,

	"repl": `REPL
  lam (or lam repl) reads expressions interactively.
  Each expression prints '=> value' or 'RUNTIME ERROR: message' and the
  session continues. Definitions persist between inputs.

  Input that is not finished (open paren, brace, or trailing operator)
  continues on the next line. Tab completes global names.
  Ctrl-C abandons the current line, Ctrl-D or :quit exits.
  History is kept in ~/.lam_history (history_file: in config).
`,

	"config": `CONFIG
  First file found wins: ./.lam.yaml, then ~/.lam/config.yaml.

    capture: snapshot        # or shared
    prompt: "> "
    history_file: ~/.lam_history
    trace_file: ""           # write JSONL trace events here
    pretty: false            # human-readable diagnostics
    capabilities:
      allow: []
      deny: []

  Unknown keys are rejected. Command-line flags override the file.
`,

	"examples": `EXAMPLES
  # factorial (self-reference needs --capture shared)
  fact = lambda (n) if n <= 1 then 1 else n * fact(n - 1);
  puts(fact(10));

  # counter: the parameter n is the closure's state (--capture shared)
  make = lambda (n) lambda () n = n + 1;
  c = make(0);
  c(); puts(c());      # 2

  # currying
  add = lambda (a) lambda (b) a + b;
  puts(add(1)(2));

  # timing
  time(lambda () sleep(0.01));
`,
}

// TopicList is the ordered list of topic names.
var TopicList = []string{"syntax", "values", "scoping", "closures", "prelude", "caps", "diagnostics", "repl", "config", "examples"}

// MatchTopic finds a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}

	var matches []string
	for _, name := range TopicList {
		if query != "" && strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic '%s'", query)
	default:
		return "", "", fmt.Errorf("ambiguous help topic '%s' (matches: %s)", query, strings.Join(matches, ", "))
	}
}

// PreludeIndex lists every function in r grouped by capability.
func PreludeIndex(r *prelude.Registry) string {
	groups := make(map[string][]*prelude.Fn)
	for _, name := range r.Names() {
		fn := r.Get(name)
		groups[fn.Capability] = append(groups[fn.Capability], fn)
	}
	caps := make([]string, 0, len(groups))
	for c := range groups {
		caps = append(caps, c)
	}
	sort.Strings(caps)

	var b strings.Builder
	b.WriteString("PRELUDE INDEX\n")
	for _, c := range caps {
		fmt.Fprintf(&b, "\n  [%s]\n", c)
		for _, fn := range groups[c] {
			fmt.Fprintf(&b, "  %-18s %s\n", fn.Usage, fn.Summary)
		}
	}
	fmt.Fprintf(&b, "\nTotal: %d functions\n", len(r.Names()))
	return b.String()
}
