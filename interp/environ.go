package interp

import (
	"bytes"
	"io"

	"rungo.sh/ion/value"
)

// subshell returns a Shell that shares this one's scope stack, function
// table, aliases, and job table (command/process substitution sees the
// invoking shell's variables) but writes to a fresh stdout, for capturing
// output without disturbing the parent's streams.
func (sh *Shell) subshell(stdout io.Writer) *Shell {
	return &Shell{
		Stdin:     sh.Stdin,
		Stdout:    stdout,
		Stderr:    sh.Stderr,
		scopes:    sh.scopes,
		functions: sh.functions,
		aliases:   sh.aliases,
		builtins:  sh.builtins,
		jobs:      sh.jobs,
		dirStack:  sh.dirStack,
		pwd:       sh.pwd,
		oldpwd:    sh.oldpwd,
		errExit:   sh.errExit,
		noExec:    sh.noExec,
		xtrace:    sh.xtrace,
	}
}

// captureStdout runs fn against a subshell whose stdout is captured in
// memory, returning the captured text and the subshell's resulting exit
// status.
func (sh *Shell) captureStdout(fn func(sub *Shell) error) (out string, status int, err error) {
	var buf bytes.Buffer
	sub := sh.subshell(&buf)
	err = fn(sub)
	return buf.String(), sub.lastStatus, err
}

// callFunctionValue invokes fn inside a fresh namespace frame, binding each
// argument to its declared name and the whole list to the array `args`. Each declared argument's count
// and, where annotated, type are checked first (spec.md §4.4, "bind each
// argument to its declared typed name (failing with InvalidArgumentCount /
// InvalidArgumentType)").
func (sh *Shell) callFunctionValue(fn *value.Function, args []string) error {
	if len(args) != len(fn.Args) {
		return invalidArgumentCount(fn.Name, len(fn.Args), len(args))
	}
	for i, decl := range fn.Args {
		if t := argTypeExpr(decl); t != nil {
			if err := checkTypeAnnotation(t, value.Str(args[i])); err != nil {
				return invalidArgumentType(fn.Name, decl.Name, err)
			}
		}
	}

	sh.scopes.PushNamespace()
	defer sh.scopes.Pop()

	for i, decl := range fn.Args {
		sh.scopes.Set(decl.Name, value.Str(args[i]))
	}
	sh.scopes.Set("args", value.ArrStrings(args...))

	prevFlow := sh.flow
	sh.flow = flowNone
	err := sh.execList(funcBody(fn))
	sh.flow = prevFlow
	return err
}
