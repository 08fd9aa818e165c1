package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain lets `exec ion ...` inside the txtar scripts run in-process via
// the real run() entry point, the same harness the teacher uses for shfmt.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"ion": func() int { return run(os.Args[1:]) },
	}))
}

// TestScripts drives the CLI scenario fixtures under testdata/scripts,
// covering part of spec.md §8's scenario table end-to-end through the real
// binary entry point (flag parsing, script/command/stdin dispatch).
func TestScripts(t *testing.T) {
	t.Parallel()
	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "scripts"),
	})
}
