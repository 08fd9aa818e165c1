//go:build unix

package interp

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/creack/pty"
	qt "github.com/frankban/quicktest"
)

// TestRunStringStdinIsTerminal checks testable property 5's precondition
// in miniature: an external command sees its stdin (fd 0) as a terminal exactly when
// the shell's Stdin field is wired to a pty slave, and not when it is a
// plain pipe, mirroring the teacher's own Nil/Pipe/Pseudo split for the
// same spec.md §4.5 "-t" check.
func TestRunStringStdinIsTerminal(t *testing.T) {
	t.Parallel()
	c := qt.New(t)

	tests := []struct {
		name  string
		stdin func(t *testing.T) io.Reader
		want  string
	}{
		{"Pipe", func(t *testing.T) io.Reader {
			return strings.NewReader("\n")
		}, "no\n"},
		{"Pseudo", func(t *testing.T) io.Reader {
			ptyFile, ttyFile, err := pty.Open()
			if err != nil {
				t.Fatal(err)
			}
			t.Cleanup(func() {
				ptyFile.Close()
				ttyFile.Close()
			})
			return ttyFile
		}, "yes\n"},
	}

	for _, test := range tests {
		test := test
		c.Run(test.name, func(c *qt.C) {
			sh := New()
			var out bytes.Buffer
			sh.Stdin = test.stdin(c.TB.(*testing.T))
			sh.Stdout = &out
			sh.Stderr = &out

			err := sh.RunString("if test -t 0\n\techo yes\nelse\n\techo no\nend\n")
			c.Assert(err, qt.IsNil)
			c.Assert(out.String(), qt.Equals, test.want)
		})
	}
}

// TestRunStringForegroundPipelineCompletes checks that a plain foreground
// pipeline runs to completion and reports the right exit status whether
// or not the shell is attached to a real controlling terminal — the
// non-terminal case exercises the foregroundCapable() guard in
// runPipeline that skips the tcsetpgrp handoff entirely rather than
// failing (spec.md §4.5 step 5 and testable property 5: reclaim is only
// attempted on the path that actually granted the terminal away).
func TestRunStringForegroundPipelineCompletes(t *testing.T) {
	c := qt.New(t)
	sh, out := newTestShell()

	err := sh.RunString("echo one | echo two\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "two\n")
	c.Assert(sh.ExitStatus(), qt.Equals, 0)
}

// TestRunStringPseudoTerminalStdoutRoundTrips checks that a command run
// with a pty wired as Stdout produces output the shell's own read side
// can observe, the same structural check as the teacher's
// TestRunnerTerminalStdIO "Pseudo" case.
func TestRunStringPseudoTerminalStdoutRoundTrips(t *testing.T) {
	c := qt.New(t)

	ptyFile, ttyFile, err := pty.Open()
	c.Assert(err, qt.IsNil)
	defer ptyFile.Close()
	defer ttyFile.Close()

	sh := New()
	sh.Stdin = strings.NewReader("\n")
	sh.Stdout = ttyFile
	sh.Stderr = ttyFile

	c.Assert(sh.RunString("echo hello\n"), qt.IsNil)

	got, err := bufio.NewReader(ptyFile).ReadString('\n')
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, "hello\r\n")
}
