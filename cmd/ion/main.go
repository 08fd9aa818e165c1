// Command ion is the interactive-shell-core CLI described in spec.md §6:
// `ion [OPTIONS] [SCRIPT [ARGS...]]`. Builtin bodies, the line editor,
// history, completion, and config-file loading beyond initrc discovery
// are external collaborators (spec.md §1) — this binary wires the core
// packages (syntax/expand/interp) together with a minimal bufio-backed
// LineReader, never a real line editor.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"rungo.sh/ion/internal/config"
	"rungo.sh/ion/interp"
)

const version = "ion 0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	flags := pflag.NewFlagSet("ion", pflag.ContinueOnError)
	command := flags.StringP("command", "c", "", "evaluate CMD instead of reading a script")
	noExecute := flags.BoolP("no-execute", "n", false, "parse input but do not execute it")
	showVersion := flags.BoolP("version", "v", false, "print version and exit")
	xtrace := flags.BoolP("xtrace", "x", false, "print commands as they are executed")
	keymap := flags.StringP("keymap", "o", "emacs", "key bindings: vi|emacs (checked for validity only)")
	if err := flags.Parse(argv); err != nil {
		fmt.Fprintln(os.Stderr, "ion:", err)
		return 2
	}
	if *showVersion {
		fmt.Println(version)
		return 0
	}
	if *keymap != "vi" && *keymap != "emacs" {
		fmt.Fprintf(os.Stderr, "ion: -o: unknown key binding %q\n", *keymap)
		return 2
	}

	sh := interp.New()
	sh.SetNoExecute(*noExecute)
	if *xtrace {
		sh.RunString("set -x")
	}

	env, _ := config.LoadEnv()
	paths := config.Discover(env)

	rest := flags.Args()

	switch {
	case *command != "":
		bindArgs(sh, "ion", rest)
		return runScript(sh, strings.NewReader(*command))
	case len(rest) > 0:
		bindArgs(sh, rest[0], rest[1:])
		f, err := os.Open(rest[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "ion: %s: %v\n", rest[0], err)
			return 127
		}
		defer f.Close()
		return runScript(sh, f)
	case term.IsTerminal(int(os.Stdin.Fd())):
		return runInteractive(sh, paths)
	default:
		return runScript(sh, os.Stdin)
	}
}

// bindArgs seeds the `args` array the parser's `fn`/script surface reads
// positional parameters from (spec.md §6, "further args bind to the args
// array").
func bindArgs(sh *interp.Shell, name string, rest []string) {
	all := append([]string{name}, rest...)
	sh.RunString("let args = [" + strings.Join(quoteAll(all), " ") + "]")
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return out
}

func runScript(sh *interp.Shell, r io.Reader) int {
	src, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintln(sh.Stderr, "ion:", err)
		return 1
	}
	if err := sh.RunString(string(src)); err != nil {
		fmt.Fprintln(sh.Stderr, err)
	}
	return sh.ExitStatus()
}

func runInteractive(sh *interp.Shell, paths config.Paths) int {
	if err := config.EnsureBaseDir(paths); err == nil {
		if initrc, err := os.ReadFile(paths.InitRC); err == nil {
			if err := sh.RunString(string(initrc)); err != nil {
				fmt.Fprintln(sh.Stderr, err)
			}
		}
	}

	lr := &scannerLineReader{scanner: bufio.NewScanner(os.Stdin), out: os.Stdout}
	if err := sh.RunInteractive(lr, "ion> ", "    > "); err != nil {
		fmt.Fprintln(os.Stderr, "ion:", err)
		return 1
	}
	return sh.ExitStatus()
}

// scannerLineReader is the minimal default LineReader (interp.LineReader):
// no history, no completion, no key bindings — a real front end supplies
// those by implementing the same interface (spec.md §1).
type scannerLineReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (lr *scannerLineReader) ReadLine(prompt string) (string, bool) {
	fmt.Fprint(lr.out, prompt)
	if !lr.scanner.Scan() {
		return "", false
	}
	return lr.scanner.Text(), true
}
