package interp

import (
	"bytes"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func newTestShell() (*Shell, *bytes.Buffer) {
	sh := New()
	var out bytes.Buffer
	sh.Stdout = &out
	sh.Stderr = &out
	return sh, &out
}

// TestRunStringEcho checks spec.md §8 scenario 1: a plain external pipeline
// writes its argv, space-joined, to stdout and exits 0.
func TestRunStringEcho(t *testing.T) {
	c := qt.New(t)
	sh, out := newTestShell()
	err := sh.RunString("echo hello world\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "hello world\n")
	c.Assert(sh.ExitStatus(), qt.Equals, 0)
}

// TestRunStringArithmetic checks spec.md §8 scenario 2: operator precedence
// inside $((...)) binds `*` tighter than `+`.
func TestRunStringArithmetic(t *testing.T) {
	c := qt.New(t)
	sh, out := newTestShell()
	err := sh.RunString("let a = 2\nlet b = 3\necho $((a+b*2))\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "8\n")
}

// TestRunStringForRange checks spec.md §8 scenario 3: an inclusive numeric
// range binds the loop variable across iterations.
func TestRunStringForRange(t *testing.T) {
	c := qt.New(t)
	sh, out := newTestShell()
	err := sh.RunString("for i in 1..=3\n\techo $i\nend\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "1\n2\n3\n")
}

// TestRunStringCommandSubstitution checks spec.md §8 scenario 4: a
// $(...) captures the inner pipeline's stdout with its trailing newline
// trimmed.
func TestRunStringCommandSubstitution(t *testing.T) {
	c := qt.New(t)
	sh, out := newTestShell()
	err := sh.RunString("let x = $(echo captured)\necho $x\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "captured\n")
}

// TestRunStringAndOrShortCircuit checks spec.md §8 scenario 5: `and`/`or`
// only run their right-hand side when the left side's status demands it.
func TestRunStringAndOrShortCircuit(t *testing.T) {
	c := qt.New(t)

	sh, out := newTestShell()
	err := sh.RunString("false\nand echo should-not-print\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "")

	sh, out = newTestShell()
	err = sh.RunString("true\nor echo should-not-print\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "")

	sh, out = newTestShell()
	err = sh.RunString("false\nor echo fallback\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "fallback\n")
}

// TestRunStringArrayIndexSelector checks spec.md §8 scenario 7: @arr[1]
// indexes the second element (0-based).
func TestRunStringArrayIndexSelector(t *testing.T) {
	c := qt.New(t)
	sh, out := newTestShell()
	err := sh.RunString("let arr = [a b c]\necho @arr[1]\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "b\n")
}

// TestRunStringBraceCartesian checks spec.md §8 scenario 8: brace
// expansion produces a Cartesian product of its two groups, in order.
func TestRunStringBraceCartesian(t *testing.T) {
	c := qt.New(t)
	sh, out := newTestShell()
	err := sh.RunString("echo {a,b}{1,2}\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "a1 a2 b1 b2\n")
}

// TestRunStringFunctionScopeHygiene checks testable property 3: a
// function's local `let` bindings do not leak into the caller's scope,
// while a variable of the same name already visible there is unaffected.
func TestRunStringFunctionScopeHygiene(t *testing.T) {
	c := qt.New(t)
	sh, out := newTestShell()
	err := sh.RunString(strings.Join([]string{
		"let n = outer",
		"fn sq x:int",
		"\tlet n = inner",
		"\techo $n",
		"end",
		"sq 4",
		"echo $n",
	}, "\n") + "\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "inner\nouter\n")
}

// TestRunStringFunctionSuperReadsOnly checks that a `super::` lookup reads
// the variable past a function's own namespace boundary, skipping the
// function's local binding of the same name.
func TestRunStringFunctionSuperReadsOnly(t *testing.T) {
	c := qt.New(t)
	sh, out := newTestShell()
	err := sh.RunString(strings.Join([]string{
		"let n = outer",
		"fn show",
		"\tlet n = inner",
		"\techo $super::n",
		"end",
		"show",
	}, "\n") + "\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "outer\n")
}

// TestRunStringExitStatusPropagation checks testable property 6: the `?`
// register reflects the last pipeline's exit status, and `true`/`false`
// set it directly.
func TestRunStringExitStatusPropagation(t *testing.T) {
	c := qt.New(t)
	sh, _ := newTestShell()
	c.Assert(sh.RunString("true\n"), qt.IsNil)
	c.Assert(sh.ExitStatus(), qt.Equals, 0)
	c.Assert(sh.RunString("false\n"), qt.IsNil)
	c.Assert(sh.ExitStatus(), qt.Equals, 1)
}

// TestRunStringNoExecuteSkipsPipelines checks -n/--no-execute (spec.md
// §6): assignments still run, but no external pipeline is forked, so
// stdout stays empty.
func TestRunStringNoExecuteSkipsPipelines(t *testing.T) {
	c := qt.New(t)
	sh, out := newTestShell()
	sh.SetNoExecute(true)
	err := sh.RunString("let x = 1\necho $x\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "")
}

// TestRunStringXTracePrintsBeforeRunning checks -x (spec.md §6): the
// expanded argv is echoed to stderr, prefixed `+`, before the pipeline
// runs.
func TestRunStringXTracePrintsBeforeRunning(t *testing.T) {
	c := qt.New(t)
	sh, out := newTestShell()
	sh.SetXTrace(true)
	err := sh.RunString("echo hi\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "+ echo hi\nhi\n")
}

// TestRunStringWhileBreakContinue exercises break/continue flow signals
// propagating out of nested blocks correctly.
func TestRunStringWhileBreakContinue(t *testing.T) {
	c := qt.New(t)
	sh, out := newTestShell()
	err := sh.RunString(strings.Join([]string{
		"let i = 0",
		"while true",
		"\tlet i = $((i+1))",
		"\tif test $i -eq 2",
		"\t\tcontinue",
		"\tend",
		"\techo $i",
		"\tif test $i -ge 3",
		"\t\tbreak",
		"\tend",
		"end",
	}, "\n") + "\n")
	c.Assert(err, qt.IsNil)
	c.Assert(out.String(), qt.Equals, "1\n3\n")
}
