package syntax

import (
	"strings"
	"testing"

	"github.com/pkg/diff"
	qt "github.com/frankban/quicktest"
)

// parseAll drives the same Terminator -> StatementSplitter -> StatementParser
// pipeline the interactive front end uses (interp.RunInteractive), feeding
// src one statement buffer at a time and collecting every completed
// Statement.
func parseAll(c *qt.C, src string) []Statement {
	c.Helper()
	stmts, err := NewTerminator().FeedAll([]byte(src))
	c.Assert(err, qt.IsNil)

	parser := NewStatementParser()
	var out []Statement
	for _, buf := range stmts {
		raws, err := NewStatementSplitter(buf).Split()
		c.Assert(err, qt.IsNil)
		for _, raw := range raws {
			stmt, err := parser.Feed(raw)
			c.Assert(err, qt.IsNil)
			if stmt == nil {
				continue
			}
			out = append(out, stmt)
		}
	}
	return out
}

// TestPrinterRoundTrip checks testable property 2 (spec.md §8) through two
// proxies, for representative constructs across the grammar: reparsing the
// printed text yields as many statements as parsing the source, and
// printing that reparse gives the same text again. A mismatch is reported
// as a unified diff via pkg/diff so a failure is readable without manually
// comparing two printed blocks.
func TestPrinterRoundTrip(t *testing.T) {
	c := qt.New(t)

	srcs := []string{
		"echo hello world\n",
		"let x = 1\n",
		"let x:int = 1\n",
		"export PATH = /usr/bin\n",
		"if true\n\techo yes\nend\n",
		"if true\n\techo yes\nelse\n\techo no\nend\n",
		"while true\n\techo loop\n\tbreak\nend\n",
		"for i in 1..=3\n\techo $i\nend\n",
		"fn add a:int b:int\n\techo $a\nend\n",
		"echo a | echo b\n",
		"echo a &\n",
		"not echo a\n",
		"and echo a\n",
		"or echo a\n",
		"time echo a\n",
		"echo @arr[1]\n",
		"echo @arr[1..3]\n",
	}

	pr := NewPrinter()
	for _, src := range srcs {
		src := src
		c.Run(src, func(c *qt.C) {
			first := parseAll(c, src)
			printed := pr.Print(first)
			second := parseAll(c, printed)

			if len(first) != len(second) {
				reportDiff(c, src, printed)
				c.Fatalf("statement count changed on round-trip: %d != %d", len(first), len(second))
			}
			reprinted := pr.Print(second)
			if printed != reprinted {
				reportDiff(c, printed, reprinted)
				c.Fatalf("printer output is not a fixed point")
			}
		})
	}
}

// reportDiff writes a unified diff between two printed statement blocks to
// the test log, using pkg/diff's io.Writer-based text differ.
func reportDiff(c *qt.C, a, b string) {
	var buf strings.Builder
	if err := diff.Text("first", "second", strings.NewReader(a), strings.NewReader(b), &buf); err != nil {
		c.Logf("diff failed: %v", err)
		return
	}
	c.Logf("%s", buf.String())
}
