package syntax

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

// TestTerminatorCompleteStatements exercises the termination-determinism
// property (spec.md §8, property 1): a balanced statement completes at its
// terminating byte, everything else asks for more input.
func TestTerminatorCompleteStatements(t *testing.T) {
	t.Parallel()
	c := qt.New(t)

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"plain", "echo hello world\n", "echo hello world\n"},
		{"semicolon", "echo hi;", "echo hi;"},
		{"singleQuote", "echo 'a;b'\n", "echo 'a;b'\n"},
		{"doubleQuote", `echo "a;b"` + "\n", `echo "a;b"` + "\n"},
		{"subshell", "echo $(echo a;echo b)\n", "echo $(echo a;echo b)\n"},
		{"array", "let a = [1;2]\n", "let a = [1;2]\n"},
		{"brace", "echo {a,b}\n", "echo {a,b}\n"},
		{"arith", "echo $((1+2;3))\n", "echo $((1+2;3))\n"},
		{"bracedVar", "echo ${name}\n", "echo ${name}\n"},
		{"backslashContinuation", "echo a\\\nb\n", "echo ab\n"},
	}
	for _, test := range tests {
		test := test
		c.Run(test.name, func(c *qt.C) {
			term := NewTerminator()
			var got string
			found := false
			for i := 0; i < len(test.src); i++ {
				complete, err := term.Feed(test.src[i])
				c.Assert(err, qt.IsNil)
				if complete {
					got = term.Take()
					found = true
					break
				}
			}
			c.Assert(found, qt.IsTrue)
			c.Assert(got, qt.Equals, test.want)
		})
	}
}

// TestTerminatorPendingUntilBalanced checks that an unbalanced construct
// never reports complete and that CheckEOF classifies the outstanding
// error correctly.
func TestTerminatorPendingUntilBalanced(t *testing.T) {
	t.Parallel()
	c := qt.New(t)

	tests := []struct {
		name string
		src  string
		kind ErrorKind
	}{
		{"subshell", "echo $(foo", UnterminatedSubshell},
		{"singleQuote", "echo 'foo", UnterminatedSingleQuotes},
		{"doubleQuote", `echo "foo`, UnterminatedDoubleQuotes},
		{"brace", "echo {a,b", UnterminatedBrace},
		{"array", "let a = [1 2", UnterminatedSquareBracket},
		{"bracedVar", "echo ${name", UnterminatedBracedVar},
	}
	for _, test := range tests {
		test := test
		c.Run(test.name, func(c *qt.C) {
			term := NewTerminator()
			for i := 0; i < len(test.src); i++ {
				complete, err := term.Feed(test.src[i])
				c.Assert(err, qt.IsNil)
				c.Assert(complete, qt.IsFalse)
			}
			err := term.CheckEOF()
			c.Assert(err, qt.Not(qt.IsNil))
			var se *Error
			c.Assert(err, qt.ErrorAs, &se)
			c.Assert(se.Kind, qt.Equals, test.kind)
		})
	}
}

// TestTerminatorInvalidBracedVarByte checks the "only [A-Za-z0-9_:,}] are
// legal inside ${...}" rule from spec.md §4.1.
func TestTerminatorInvalidBracedVarByte(t *testing.T) {
	t.Parallel()
	c := qt.New(t)

	term := NewTerminator()
	src := "echo ${na!me}\n"
	var lastErr error
	for i := 0; i < len(src); i++ {
		complete, err := term.Feed(src[i])
		if err != nil {
			lastErr = err
			break
		}
		if complete {
			break
		}
	}
	c.Assert(lastErr, qt.Not(qt.IsNil))
	var se *Error
	c.Assert(lastErr, qt.ErrorAs, &se)
	c.Assert(se.Kind, qt.Equals, InvalidCharacter)
}

// TestTerminatorFeedAllNoLossNoDuplication is a coarse check of the
// no-loss/no-duplication half of property 1: feeding several statements in
// one chunk returns exactly that many completed buffers, each exactly as
// written.
func TestTerminatorFeedAllNoLossNoDuplication(t *testing.T) {
	t.Parallel()
	c := qt.New(t)

	term := NewTerminator()
	stmts, err := term.FeedAll([]byte("echo a\necho b\necho c\n"))
	c.Assert(err, qt.IsNil)
	c.Assert(stmts, qt.DeepEquals, []string{"echo a\n", "echo b\n", "echo c\n"})
}
