package interp

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"rungo.sh/ion/expand"
	"rungo.sh/ion/pattern"
	"rungo.sh/ion/syntax"
	"rungo.sh/ion/value"
)

// RunString parses src as a complete script and executes it to
// completion, returning the first error encountered (or, under `set -e`,
// the first nonzero-status command's wrapped error).
func (sh *Shell) RunString(src string) error {
	stmts, err := ParseAll(src)
	if err != nil {
		return parseError(err)
	}
	return sh.execList(stmts)
}

// ParseAll runs the Terminator/StatementSplitter/StatementParser pipeline
// over a complete buffer (spec.md §4.1-§4.2), returning the resulting
// top-level statement tree.
func ParseAll(src string) ([]syntax.Statement, error) {
	term := syntax.NewTerminator()
	parser := syntax.NewStatementParser()
	var out []syntax.Statement

	// A final statement without a trailing newline is still complete.
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	for i := 0; i < len(src); i++ {
		complete, err := term.Feed(src[i])
		if err != nil {
			return nil, err
		}
		if !complete {
			continue
		}
		buf := term.Take()
		raws, err := syntax.NewStatementSplitter(buf).Split()
		if err != nil {
			return nil, err
		}
		for _, raw := range raws {
			stmt, err := parser.Feed(raw)
			if err != nil {
				return nil, err
			}
			if stmt != nil {
				out = append(out, stmt)
			}
		}
	}
	if err := term.CheckEOF(); err != nil {
		return nil, err
	}
	return out, nil
}

// execList runs a statement list in order, stopping early on break/
// continue/return propagating up from a nested block.
func (sh *Shell) execList(stmts []syntax.Statement) error {
	for _, s := range stmts {
		if err := sh.execStmt(s); err != nil {
			return err
		}
		if sh.flow != flowNone {
			return nil
		}
	}
	return nil
}

func (sh *Shell) execStmt(s syntax.Statement) error {
	switch v := s.(type) {
	case syntax.LetStmt:
		return sh.execAssign(v.Action, sh.scopes.Set)
	case syntax.ExportStmt:
		return sh.execAssign(v.Action, func(name string, val value.Value) {
			sh.scopes.SetGlobal(name, val)
		})
	case syntax.IfStmt:
		return sh.execIf(v)
	case syntax.WhileStmt:
		return sh.execWhile(v)
	case syntax.ForStmt:
		return sh.execFor(v)
	case syntax.MatchStmt:
		return sh.execMatch(v)
	case syntax.FunctionStmt:
		sh.functions[v.Name] = &value.Function{
			Name: v.Name, Description: v.Description, Body: v.Body,
			Args: declsToFuncArgs(v.Args),
		}
		return nil
	case syntax.PipelineStmt:
		return sh.execPipelineStmt(v)
	case syntax.TimeStmt:
		start := time.Now()
		err := sh.execStmt(v.Inner)
		fmt.Fprintf(sh.Stderr, "real\t%s\n", time.Since(start))
		return err
	case syntax.AndStmt:
		if sh.lastStatus != 0 {
			return nil
		}
		return sh.execStmt(v.Inner)
	case syntax.OrStmt:
		if sh.lastStatus == 0 {
			return nil
		}
		return sh.execStmt(v.Inner)
	case syntax.NotStmt:
		err := sh.execStmt(v.Inner)
		if sh.lastStatus == 0 {
			sh.lastStatus = 1
		} else {
			sh.lastStatus = 0
		}
		return err
	case syntax.BreakStmt:
		sh.flow = flowBreak
		return nil
	case syntax.ContinueStmt:
		sh.flow = flowContinue
		return nil
	}
	return nil
}

func declsToFuncArgs(decls []syntax.FuncArgDecl) []value.FuncArg {
	out := make([]value.FuncArg, len(decls))
	for i, d := range decls {
		out[i] = value.FuncArg{Name: d.Name, Type: d.Type}
	}
	return out
}

// argTypeExpr pins a FuncArg's any-typed Type back down to the concrete
// annotation declsToFuncArgs stashed there, or nil for an untyped arg.
func argTypeExpr(a value.FuncArg) *syntax.TypeExpr {
	t, _ := a.Type.(*syntax.TypeExpr)
	return t
}

// reservedVars are immutable from user assignment (spec.md §3): `let`/
// `export` targeting any of these produces a read-only-var error instead
// of silently overwriting the shell-maintained value.
var reservedVars = map[string]bool{
	"HOME": true, "HOST": true, "PWD": true, "MWD": true, "SWD": true, "?": true,
}

func (sh *Shell) execAssign(act syntax.LocalAction, set func(string, value.Value)) error {
	for _, name := range act.Keys {
		if reservedVars[name] {
			return assignmentError(name, fmt.Errorf("%s is read-only", name))
		}
	}

	vals := make([]string, 0, len(act.Values))
	for _, w := range act.Values {
		fields, err := expand.ExpandWord(w, sh)
		if err != nil {
			return expansionError("%v", err)
		}
		vals = append(vals, fields...)
	}

	if len(act.Keys) == 1 {
		name := act.Keys[0]
		var v value.Value
		if len(vals) == 1 {
			v = value.Str(vals[0])
		} else {
			v = value.ArrStrings(vals...)
		}
		if act.Op != syntax.OpAssign {
			cur, _ := sh.Get(name)
			combined, err := applyCompoundOp(act.Op, cur, v)
			if err != nil {
				return assignmentError(name, err)
			}
			v = combined
		}
		if act.Types[0] != nil {
			if err := checkTypeAnnotation(act.Types[0], v); err != nil {
				return assignmentError(name, err)
			}
		}
		set(name, v)
		return nil
	}

	for i, name := range act.Keys {
		var v value.Value
		if i < len(vals) {
			v = value.Str(vals[i])
		}
		set(name, v)
	}
	return nil
}

func applyCompoundOp(op syntax.AssignOp, cur, rhs value.Value) (value.Value, error) {
	curN, err := strconv.ParseFloat(strings.TrimSpace(cur.String()), 64)
	if err != nil {
		curN = 0
	}
	rhsN, err := strconv.ParseFloat(strings.TrimSpace(rhs.String()), 64)
	if err != nil {
		return value.Value{}, err
	}
	var result float64
	switch op {
	case syntax.OpAddAssign:
		result = curN + rhsN
	case syntax.OpSubAssign:
		result = curN - rhsN
	case syntax.OpMulAssign:
		result = curN * rhsN
	case syntax.OpDivAssign:
		if rhsN == 0 {
			return value.Value{}, fmt.Errorf("division by zero")
		}
		result = curN / rhsN
	case syntax.OpPowAssign:
		result = 1
		for i := 0; i < int(rhsN); i++ {
			result *= curN
		}
	}
	if result == float64(int64(result)) {
		return value.Str(strconv.FormatInt(int64(result), 10)), nil
	}
	return value.Str(strconv.FormatFloat(result, 'g', -1, 64)), nil
}

func checkTypeAnnotation(t *syntax.TypeExpr, v value.Value) error {
	if t.Array && v.Kind != value.KindArray {
		return fmt.Errorf("expected array, got %s", v.Kind)
	}
	switch t.Name {
	case "int":
		if _, err := strconv.ParseInt(strings.TrimSpace(v.String()), 0, 64); err != nil && !t.Array {
			return fmt.Errorf("expected int: %q", v.String())
		}
	case "float":
		if _, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64); err != nil && !t.Array {
			return fmt.Errorf("expected float: %q", v.String())
		}
	case "bool":
		s := strings.TrimSpace(v.String())
		if s != "true" && s != "false" && !t.Array {
			return fmt.Errorf("expected bool: %q", v.String())
		}
	}
	return nil
}

func (sh *Shell) execIf(v syntax.IfStmt) error {
	ok, err := sh.evalCond(v.Cond)
	if err != nil {
		return err
	}
	if ok {
		sh.scopes.PushBlock()
		defer sh.scopes.Pop()
		return sh.execList(v.Success)
	}
	for _, ei := range v.ElseIfs {
		ok, err := sh.evalCondStmt(ei.Cond)
		if err != nil {
			return err
		}
		if ok {
			sh.scopes.PushBlock()
			defer sh.scopes.Pop()
			return sh.execList(ei.Body)
		}
	}
	sh.scopes.PushBlock()
	defer sh.scopes.Pop()
	return sh.execList(v.Failure)
}

func (sh *Shell) evalCond(ps *syntax.PipelineStmt) (bool, error) {
	if ps == nil {
		return true, nil
	}
	if err := sh.execPipelineStmt(*ps); err != nil {
		return false, err
	}
	return sh.lastStatus == 0, nil
}

func (sh *Shell) evalCondStmt(s syntax.Statement) (bool, error) {
	if ps, ok := s.(syntax.PipelineStmt); ok {
		return sh.evalCond(&ps)
	}
	if err := sh.execStmt(s); err != nil {
		return false, err
	}
	return sh.lastStatus == 0, nil
}

func (sh *Shell) execWhile(v syntax.WhileStmt) error {
	for {
		ok, err := sh.evalCondStmt(v.Cond)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		sh.scopes.PushBlock()
		err = sh.execList(v.Body)
		sh.scopes.Pop()
		if err != nil {
			return err
		}
		switch sh.flow {
		case flowBreak:
			sh.flow = flowNone
			return nil
		case flowContinue:
			sh.flow = flowNone
		case flowReturn:
			return nil
		}
	}
}

func (sh *Shell) execFor(v syntax.ForStmt) error {
	var items []string
	for _, w := range v.Values {
		fields, err := expand.ExpandWord(w, sh)
		if err != nil {
			return expansionError("%v", err)
		}
		items = append(items, fields...)
	}
	for _, item := range items {
		sh.scopes.PushBlock()
		if len(v.Vars) == 1 {
			if v.Vars[0] != "_" {
				sh.scopes.Set(v.Vars[0], value.Str(item))
			}
		}
		err := sh.execList(v.Body)
		sh.scopes.Pop()
		if err != nil {
			return err
		}
		switch sh.flow {
		case flowBreak:
			sh.flow = flowNone
			return nil
		case flowContinue:
			sh.flow = flowNone
		case flowReturn:
			return nil
		}
	}
	return nil
}

func (sh *Shell) execMatch(v syntax.MatchStmt) error {
	fields, err := expand.ExpandWord(v.Expr, sh)
	if err != nil {
		return expansionError("%v", err)
	}
	// A scrutinee that does not expand to exactly one field is treated as an
	// array and matches a case by set-membership, testing the pattern against
	// each element in turn,
	// rather than against the fields joined into one string (spec.md §4.4,
	// "set-membership when the scrutinee is an array").
	isArray := len(fields) != 1
	subject := strings.Join(fields, " ")

	for _, c := range v.Cases {
		matched := !c.HasValue
		if c.HasValue {
			lit, isLit := c.Value.Lit()
			if !isLit {
				exp, err := expand.ExpandWord(c.Value, sh)
				if err != nil {
					return expansionError("%v", err)
				}
				lit = strings.Join(exp, " ")
			}
			var ok bool
			if isArray {
				for _, f := range fields {
					ok, err = pattern.Match(lit, f)
					if err != nil {
						return expansionError("%v", err)
					}
					if ok {
						break
					}
				}
			} else {
				ok, err = pattern.Match(lit, subject)
				if err != nil {
					return expansionError("%v", err)
				}
			}
			matched = ok
		}
		if !matched {
			continue
		}
		sh.scopes.PushBlock()
		if c.Binding != "" {
			sh.scopes.Set(strings.TrimPrefix(c.Binding, "@"), value.Str(subject))
		}
		if c.HasGuard {
			ok, err := sh.evalCondStmt(c.Guard)
			if err != nil {
				sh.scopes.Pop()
				return err
			}
			if !ok {
				sh.scopes.Pop()
				continue
			}
		}
		err := sh.execList(c.Body)
		sh.scopes.Pop()
		return err
	}
	return nil
}

func (sh *Shell) execPipelineStmt(v syntax.PipelineStmt) error {
	if v.Pipeline == nil {
		return nil
	}
	return sh.runExpandedPipeline(v.Pipeline)
}

// runExpandedPipeline expands every argument/redirect word in pl, handles
// alias re-expansion of the first word, and dispatches to either a
// single-item in-process builtin/function call or the fork/exec pipeline
// executor (spec.md §4.4, "builtin in-process-vs-forked dispatch rule").
func (sh *Shell) runExpandedPipeline(pl *syntax.Pipeline) error {
	if sh.noExec {
		return nil
	}
	items := make([][]string, len(pl.Items))
	redirects := make([]resolvedRedirects, len(pl.Items))

	for i, item := range pl.Items {
		var argv []string
		for _, w := range item.Job.Args {
			fields, err := expand.ExpandWord(w, sh)
			if err != nil {
				return expansionError("%v", err)
			}
			argv = append(argv, fields...)
		}
		argv = sh.expandAlias(argv)
		items[i] = argv

		var r resolvedRedirects
		for _, in := range item.Inputs {
			fields, err := expand.ExpandWord(in.Source, sh)
			if err != nil {
				return expansionError("%v", err)
			}
			if len(fields) > 0 {
				r.stdin, r.hasIn = fields[0], true
			}
		}
		for _, out := range item.Outputs {
			fields, err := expand.ExpandWord(out.File, sh)
			if err != nil {
				return expansionError("%v", err)
			}
			if len(fields) > 0 {
				r.outs = append(r.outs, resolvedOutput{file: fields[0], append: out.Append, from: out.From})
			}
		}
		redirects[i] = r
	}

	if sh.xtrace {
		sh.printTrace(items)
	}

	if len(items) == 1 && pl.Mode == syntax.ModeLast {
		if status, handled, err := sh.tryInProcess(items[0]); handled {
			sh.lastStatus = status
			if sh.errExit && status != 0 {
				return executionError(status, fmt.Errorf("command exited %d", status))
			}
			return err
		}
	}

	if pl.Mode != syntax.ModeLast {
		return sh.runBackground(pl, items, redirects)
	}

	status, err := sh.runPipeline(pl, items, redirects)
	sh.lastStatus = status
	if err != nil {
		return err
	}
	if sh.errExit && status != 0 {
		return executionError(status, fmt.Errorf("command exited %d", status))
	}
	return nil
}

// printTrace implements -x: each stage's expanded argv is echoed to
// stderr, prefixed `+`, before the pipeline runs (spec.md §6).
func (sh *Shell) printTrace(items [][]string) {
	parts := make([]string, len(items))
	for i, argv := range items {
		parts[i] = strings.Join(argv, " ")
	}
	fmt.Fprintln(sh.Stderr, "+", strings.Join(parts, " | "))
}

// tryInProcess dispatches a single-command pipeline to a builtin or
// defined function without forking, per the dispatch contract.
func (sh *Shell) tryInProcess(argv []string) (status int, handled bool, err error) {
	if len(argv) == 0 {
		return 0, true, nil
	}
	if b, ok := sh.builtins[argv[0]]; ok {
		return b(sh, argv), true, nil
	}
	if fn, ok := sh.functions[argv[0]]; ok {
		prevOut := sh.lastStatus
		err := sh.callFunctionValue(fn, argv[1:])
		if err != nil {
			return statusFor(err), true, err
		}
		_ = prevOut
		return sh.lastStatus, true, nil
	}
	return 0, false, nil
}

// runBackground forks a pipeline without granting it the terminal and
// without waiting for it, then hands off reaping to watchBackground so
// the prompt stays interactive (spec.md §4.5 step 6, "background mode":
// print `[job] pid`, register Running, do not wait). The job-table slot
// is created before the watcher goroutine is spawned, per §5's ordering
// guarantee that a watcher never observes a pid before its slot exists.
func (sh *Shell) runBackground(pl *syntax.Pipeline, items [][]string, redirects []resolvedRedirects) error {
	cmdline := make([]string, 0, len(items))
	for _, argv := range items {
		cmdline = append(cmdline, strings.Join(argv, " "))
	}
	sp, err := sh.startBackgroundPipeline(pl, items, redirects)
	if err != nil {
		sh.lastStatus = statusFor(err)
		return err
	}
	j := sh.jobs.Add(sp.pgid, strings.Join(cmdline, " | "))
	fmt.Fprintf(sh.Stderr, "[%d] %d\n", j.Slot, j.PID)
	if pl.Mode == syntax.ModeDisown {
		sh.jobs.Disown(j.Slot, false)
	}
	if sp.pgid != 0 {
		sh.watchBackground(j)
	} else {
		sh.jobs.MarkDone(j.Slot, sp.status)
	}
	sh.lastStatus = 0
	return nil
}

// expandAlias replaces an aliased argv[0] with the whitespace-separated
// words of its alias body and appends the remaining arguments. The body is
// not passed through the statement splitter or parser: connectives, quotes
// and expansions inside it are not interpreted.
func (sh *Shell) expandAlias(argv []string) []string {
	if len(argv) == 0 {
		return argv
	}
	body, ok := sh.aliases[argv[0]]
	if !ok {
		return argv
	}
	expanded := strings.Fields(body)
	return append(expanded, argv[1:]...)
}
