// Package shell is a thin convenience wrapper around interp.Shell for
// callers that just want to run a script or a single command without
// wiring up the interpreter directly (spec.md §6, CLI entry points).
package shell

import (
	"io"

	"rungo.sh/ion/interp"
)

// Run executes src as a complete script against a fresh Shell and returns
// its final exit status and any error encountered.
func Run(src string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	sh := interp.New()
	if stdin != nil {
		sh.Stdin = stdin
	}
	if stdout != nil {
		sh.Stdout = stdout
	}
	if stderr != nil {
		sh.Stderr = stderr
	}
	err := sh.RunString(src)
	return sh.ExitStatus(), err
}

// Source runs src against an existing Shell, for callers building up a
// persistent session (sourcing an initrc file before accepting input).
func Source(sh *interp.Shell, src string) error {
	return sh.RunString(src)
}
