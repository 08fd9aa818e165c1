// Package interp executes the statement tree the syntax package parses:
// flow control, function calls, alias re-expansion, pipeline/job control,
// and the signal model (spec.md §4, §5).
package interp

import (
	"io"
	"os"
	"os/user"

	"rungo.sh/ion/syntax"
	"rungo.sh/ion/value"
)

// flowSignal is what a statement's execution reports back up to its
// enclosing loop/function (spec.md §4.4, "Statements return
// Continue/Break/NoOp").
type flowSignal uint8

const (
	flowNone flowSignal = iota
	flowBreak
	flowContinue
	flowReturn
)

// Shell is the complete interpreter state for one shell process or
// subshell: the scope stack, last exit status, builtin table, job table,
// and directory stack (spec.md §3, "Shell state").
type Shell struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	scopes *scopeStack

	lastStatus int
	pipeStatus []int // diagnostics only; not exposed to scripts (see SPEC_FULL.md Open Questions)

	functions map[string]*value.Function
	aliases   map[string]string

	builtins map[string]Builtin

	jobs *JobTable

	dirStack []string // pushd/popd stack; index 0 is the oldest entry
	pwd      string
	oldpwd   string

	errExit  bool // set -e
	noExec   bool // -n/--no-execute
	xtrace   bool // -x

	flow flowSignal
}

// New returns a Shell ready to execute statements, with its builtin table
// installed and its working-directory state seeded from the OS.
func New() *Shell {
	sh := &Shell{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		scopes:    newScopeStack(),
		functions: make(map[string]*value.Function),
		aliases:   make(map[string]string),
		jobs:      NewJobTable(),
	}
	sh.builtins = defaultBuiltins()
	if wd, err := os.Getwd(); err == nil {
		sh.pwd = wd
	}
	sh.seedEnv()
	sh.installSignalHandlers()
	return sh
}

// SetNoExecute toggles -n/--no-execute (spec.md §6): statements are
// parsed and their assignments/control flow still run, but pipelines are
// not forked/executed.
func (sh *Shell) SetNoExecute(v bool) { sh.noExec = v }

// SetXTrace toggles -x (spec.md §6): each expanded pipeline's argv is
// echoed to stderr before it runs, the same flag `set -x`/`set +x` flips
// at runtime.
func (sh *Shell) SetXTrace(v bool) { sh.xtrace = v }

func (sh *Shell) seedEnv() {
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				sh.scopes.SetGlobal(kv[:i], value.Str(kv[i+1:]))
				break
			}
		}
	}
}

// ExitStatus returns the `?` register: the exit status of the last
// executed pipeline (spec.md §4.5).
func (sh *Shell) ExitStatus() int { return sh.lastStatus }

// SetExitStatus sets the `?` register directly (used by builtins like
// `true`/`false` and by the executor after a pipeline completes).
func (sh *Shell) SetExitStatus(n int) { sh.lastStatus = n }

// --- expand.Environ implementation ---

// Get implements expand.Environ.
func (sh *Shell) Get(name string) (value.Value, bool) {
	bare, hops, global := splitScopePrefix(name)
	switch {
	case global:
		return sh.scopes.GetGlobal(bare)
	case hops > 0:
		return sh.scopes.GetSuper(bare, hops)
	default:
		return sh.scopes.Get(bare)
	}
}

// splitScopePrefix strips every leading `super::` occurrence (repeatable,
// spec.md §3: "super:: prefix (repeatable)") or a single `global::`,
// returning the bare name, the number of namespace boundaries to hop (one
// per super:: stripped), and whether global:: was seen.
func splitScopePrefix(name string) (bare string, hops int, global bool) {
	const superPrefix, globalPrefix = "super::", "global::"
	for len(name) > len(superPrefix) && name[:len(superPrefix)] == superPrefix {
		name = name[len(superPrefix):]
		hops++
	}
	if hops > 0 {
		return name, hops, false
	}
	if len(name) > len(globalPrefix) && name[:len(globalPrefix)] == globalPrefix {
		return name[len(globalPrefix):], 0, true
	}
	return name, 0, false
}

// Env implements expand.Environ (the env:: namespace): it reads the
// process environment directly, independent of shell-local variables.
func (sh *Shell) Env(name string) (string, bool) {
	return os.LookupEnv(name)
}

// Pwd implements expand.Environ.
func (sh *Shell) Pwd() string { return sh.pwd }

// Home implements expand.Environ: empty user means the invoking user.
func (sh *Shell) Home(name string) (string, bool) {
	if name == "" {
		if home, ok := os.LookupEnv("HOME"); ok {
			return home, true
		}
		if u, err := user.Current(); err == nil {
			return u.HomeDir, true
		}
		return "", false
	}
	if u, err := user.Lookup(name); err == nil {
		return u.HomeDir, true
	}
	return "", false
}

// DirStack implements expand.Environ.
func (sh *Shell) DirStack() []string { return sh.dirStack }

// CallFunction implements expand.Environ by invoking a defined shell
// function and capturing its stdout.
func (sh *Shell) CallFunction(name string, args []string) (stdout string, status int, ok bool, err error) {
	fn, exists := sh.functions[name]
	if !exists {
		return "", 0, false, nil
	}
	out, status, err := sh.captureStdout(func(sub *Shell) error {
		return sub.callFunctionValue(fn, args)
	})
	return out, status, true, err
}

// RunCapture implements expand.Environ for command substitution: it
// re-parses source as a full statement and runs it against a child Shell
// sharing this one's variables, capturing stdout.
func (sh *Shell) RunCapture(source string, splitLines bool) (lines []string, status int, err error) {
	out, status, err := sh.captureStdout(func(sub *Shell) error {
		return sub.RunString(source)
	})
	if err != nil {
		return nil, status, err
	}
	if splitLines {
		return splitCaptureLines(out), status, nil
	}
	return []string{out}, status, nil
}

func splitCaptureLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

// funcBody pins down the any-typed value.Function.Body back to a
// concrete statement list for execution.
func funcBody(fn *value.Function) []syntax.Statement {
	if body, ok := fn.Body.([]syntax.Statement); ok {
		return body
	}
	return nil
}
