// Package expand turns the syntax package's Word/ArithNode trees into
// runtime values: variable and namespace lookups, brace/tilde/arithmetic/
// command-substitution expansion, string and array methods, and globbing
// (spec.md §4.3). It depends only on value and syntax, plus the Environ
// interface below for variable access, so interp.Shell can implement
// Environ without expand importing interp back.
package expand

import (
	"fmt"

	"rungo.sh/ion/value"
)

// Environ is the variable-access surface expand needs from whatever shell
// state is evaluating a word. interp.Shell implements this directly;
// tests can supply a bare map-backed stub.
type Environ interface {
	// Get looks up a variable by name, applying the scope-stack rules
	// (innermost frame first, namespace boundary respected unless prefixed
	// with super:: or global::).
	Get(name string) (value.Value, bool)

	// Env returns the process-environment string value of name (the env::
	// namespace), and whether it was set.
	Env(name string) (string, bool)

	// Pwd and Home back ~ and ~+/~- tilde expansion.
	Pwd() string
	Home(user string) (string, bool)

	// DirStack backs ~+N / ~-N, returning the Nth-from-front/back pushd
	// directory.
	DirStack() []string

	// CallFunction invokes a shell function by name for $(fn args) / @(fn
	// args) process-substitution-like captures that target a defined
	// function rather than an external command; ok is false if no such
	// function exists.
	CallFunction(name string, args []string) (stdout string, status int, ok bool, err error)

	// RunCapture runs a full statement (already re-parsed by the caller
	// from a ProcSubst's raw Source) and returns its captured stdout and
	// exit status, for command substitution.
	RunCapture(source string, splitLines bool) (output []string, status int, err error)
}

// Error is returned for a malformed expansion (spec.md §7, "Expansion
// errors"); the executor reports it as `ion: expansion error: <detail>`.
type Error struct {
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func errf(format string, args ...any) error {
	return &Error{Detail: fmt.Sprintf(format, args...)}
}
