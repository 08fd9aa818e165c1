package interp

import (
	"fmt"

	"rungo.sh/ion/syntax"
)

// RunInteractive drives a read-eval-print loop against lr, the external
// line editor (spec.md §1, "the line editor ... consumed via a
// LineReader interface"). Each statement is executed as soon as its
// surrounding multi-line construct closes, rather than waiting for the
// whole session to be read, so side effects (job control, prompt
// changes) are visible immediately. prompt is shown at the start of a
// new statement; contPrompt is shown while continuing one (unterminated
// quote/brace/subshell/backslash-newline, spec.md §4.1).
func (sh *Shell) RunInteractive(lr LineReader, prompt, contPrompt string) error {
	term := syntax.NewTerminator()
	parser := syntax.NewStatementParser()
	cur := prompt

	for {
		// SIGINT at the prompt discards the current multi-line buffer and
		// returns control to a fresh prompt without aborting the shell
		// (spec.md §5, "Cancellation").
		if sigintSeen.Swap(false) {
			term = syntax.NewTerminator()
			cur = prompt
		}

		line, ok := lr.ReadLine(cur)
		if !ok {
			return term.CheckEOF()
		}

		var err error
		complete := false
		for i := 0; i < len(line); i++ {
			complete, err = term.Feed(line[i])
			if err != nil {
				break
			}
		}
		if err == nil {
			complete, err = term.Feed('\n')
		}
		if err != nil {
			fmt.Fprintln(sh.Stderr, parseError(err))
			sh.lastStatus = 2
			term = syntax.NewTerminator()
			cur = prompt
			continue
		}
		if !complete {
			cur = contPrompt
			continue
		}
		cur = prompt

		buf := term.Take()
		raws, err := syntax.NewStatementSplitter(buf).Split()
		if err != nil {
			fmt.Fprintln(sh.Stderr, parseError(err))
			sh.lastStatus = 2
			continue
		}
		sh.runRawStatements(parser, raws)
	}
}

// runRawStatements feeds each raw statement through the persistent
// StatementParser (which keeps the open if/while/for/match/fn block
// stack across calls) and executes every complete top-level Statement it
// yields, printing any error per its §7 classification and continuing
// the session (a single bad statement does not end an interactive
// shell).
func (sh *Shell) runRawStatements(parser *syntax.StatementParser, raws []syntax.RawStatement) {
	for _, raw := range raws {
		stmt, err := parser.Feed(raw)
		if err != nil {
			fmt.Fprintln(sh.Stderr, parseError(err))
			sh.lastStatus = 2
			continue
		}
		if stmt == nil {
			continue // still inside an open block
		}
		sh.flow = flowNone
		if err := sh.execStmt(stmt); err != nil {
			fmt.Fprintln(sh.Stderr, err)
			sh.lastStatus = statusFor(err)
		}
	}
}
