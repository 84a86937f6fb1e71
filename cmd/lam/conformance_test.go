package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thomasrohde/lam/internal/testutil"
)

func TestConformance(t *testing.T) {
	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatal("no scenarios found")
	}

	for _, dir := range dirs {
		dir := dir
		t.Run(filepath.Base(dir), func(t *testing.T) {
			scenario, err := testutil.LoadScenario(dir)
			if err != nil {
				t.Fatalf("failed to load scenario: %v", err)
			}
			runScenario(t, dir, scenario)
		})
	}
}

func runScenario(t *testing.T, dir string, scenario *testutil.Scenario) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	a := &app{
		stdin:  strings.NewReader(scenario.Stdin),
		stdout: &stdout,
		stderr: &stderr,
		cwd:    dir,
		home:   t.TempDir(),
	}
	exitCode := a.main(testutil.ResolveArgs(dir, scenario.Cmd))

	expect := scenario.Expect
	if exitCode != expect.ExitCode {
		t.Errorf("exit code: got %d, want %d\nstdout: %s\nstderr: %s", exitCode, expect.ExitCode, stdout.String(), stderr.String())
	}

	if expect.StdoutText != nil && stdout.String() != *expect.StdoutText {
		t.Errorf("stdout:\n  got:  %q\n  want: %q", stdout.String(), *expect.StdoutText)
	}
	if expect.StdoutContains != "" && !strings.Contains(stdout.String(), expect.StdoutContains) {
		t.Errorf("stdout should contain %q, got: %s", expect.StdoutContains, stdout.String())
	}
	if expect.StdoutJSON != nil {
		want, err := testutil.NormalizeJSON(expect.StdoutJSON)
		if err != nil {
			t.Fatalf("bad stdoutJson in scenario: %v", err)
		}
		got, err := testutil.NormalizeJSON(stdout.Bytes())
		if err != nil {
			t.Fatalf("stdout is not JSON: %v (raw: %s)", err, stdout.String())
		}
		if got != want {
			t.Errorf("stdout JSON:\n  got:  %s\n  want: %s", got, want)
		}
	}

	checkStderrExpectations(t, stderr.String(), scenario)
}

func checkStderrExpectations(t *testing.T, stderrOutput string, scenario *testutil.Scenario) {
	t.Helper()
	expect := scenario.Expect

	if expect.StderrText != nil && stderrOutput != *expect.StderrText {
		t.Errorf("stderr:\n  got:  %q\n  want: %q", stderrOutput, *expect.StderrText)
	}

	if expect.StderrContains != "" && !strings.Contains(stderrOutput, expect.StderrContains) {
		t.Errorf("stderr should contain '%s', got: %s", expect.StderrContains, stderrOutput)
	}

	if expect.StderrJSONSubset == nil {
		return
	}

	// Parse the expected subset
	var expectedSubset []map[string]any
	if err := json.Unmarshal(expect.StderrJSONSubset, &expectedSubset); err != nil {
		t.Fatalf("failed to parse expected stderr JSON subset: %v", err)
	}

	// Diagnostics are one JSON array; warnings may precede it on other lines.
	var actualDiags []any
	found := false
	for _, line := range strings.Split(stderrOutput, "\n") {
		if strings.HasPrefix(line, "[") && json.Unmarshal([]byte(line), &actualDiags) == nil {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("stderr has no JSON diagnostics: %s", stderrOutput)
	}

	for _, expected := range expectedSubset {
		matched := false
		for _, actual := range actualDiags {
			if testutil.IsSubset(expected, actual) {
				matched = true
				break
			}
		}
		if !matched {
			t.Errorf("stderr JSON subset not found: %v\n  in: %s", expected, stderrOutput)
		}
	}
}
