package expand

import (
	"strconv"
	"strings"

	"rungo.sh/ion/syntax"
	"rungo.sh/ion/value"
)

// ExpandWord fully expands w: variable/array/namespace lookups, tilde,
// arithmetic, process substitution, brace Cartesian product, and a final
// globbing pass over the unquoted result (spec.md §4.3). Each returned
// string is one resulting field; a Word containing an unquoted multi-value
// part (an array reference, a brace expression, a split process
// substitution) fans out into multiple fields via Cartesian product.
func ExpandWord(w syntax.Word, env Environ) ([]string, error) {
	fields, quoted, err := expandParts(w, env)
	if err != nil {
		return nil, err
	}
	if quoted {
		return fields, nil
	}
	var out []string
	for _, f := range fields {
		out = append(out, Glob(f)...)
	}
	return out, nil
}

// expandParts returns the Cartesian-product fields produced by w, and
// whether any part was written in a quoted context (which disables the
// final glob pass for this word).
func expandParts(w syntax.Word, env Environ) (fields []string, quoted bool, err error) {
	fields = []string{""}
	for _, part := range w {
		var alts []string
		var partQuoted bool
		alts, partQuoted, err = expandPart(part, env)
		if err != nil {
			return nil, false, err
		}
		quoted = quoted || partQuoted
		fields = cartesian(fields, alts)
	}
	return fields, quoted, nil
}

func cartesian(prefixes, alts []string) []string {
	if len(alts) == 0 {
		return prefixes
	}
	out := make([]string, 0, len(prefixes)*len(alts))
	for _, p := range prefixes {
		for _, a := range alts {
			out = append(out, p+a)
		}
	}
	return out
}

func expandPart(part syntax.WordPart, env Environ) (alts []string, quoted bool, err error) {
	switch p := part.(type) {
	case syntax.Normal:
		return []string{p.Text}, false, nil
	case syntax.Whitespace:
		return []string{p.Text}, true, nil
	case syntax.Tilde:
		s, err := expandTilde(p, env)
		return []string{s}, true, err
	case syntax.VarRef:
		v, err := lookupVar(p.Name, env)
		if err != nil {
			return nil, p.Quoted, err
		}
		v, err = ApplySelector(v, p.Selector, env)
		if err != nil {
			return nil, p.Quoted, err
		}
		return []string{v.String()}, p.Quoted, nil
	case syntax.ArrayRef:
		v, err := lookupVar(p.Name, env)
		if err != nil {
			return nil, p.Quoted, err
		}
		v, err = ApplySelector(v, p.Selector, env)
		if err != nil {
			return nil, p.Quoted, err
		}
		if p.Quoted {
			return []string{v.String()}, true, nil
		}
		return v.Elements(), false, nil
	case syntax.ProcSubst:
		return expandProcSubst(p, env)
	case syntax.ArithExprPart:
		s, err := EvalArith(p.Expr, env)
		return []string{s}, true, err
	case syntax.BraceExpr:
		alts, err := ExpandBrace(p, func(w syntax.Word) ([]string, error) { return ExpandWord(w, env) })
		return alts, false, err
	case syntax.MethodExpr:
		return expandMethod(p, env)
	}
	return []string{""}, false, nil
}

func expandTilde(t syntax.Tilde, env Environ) (string, error) {
	switch {
	case t.Plus:
		stack := env.DirStack()
		if t.HasN && t.N < len(stack) {
			return stack[t.N], nil
		}
		return env.Pwd(), nil
	case t.Minus:
		stack := env.DirStack()
		if t.HasN && t.N < len(stack) {
			return stack[len(stack)-1-t.N], nil
		}
		if len(stack) > 0 {
			return stack[len(stack)-1], nil
		}
		return env.Pwd(), nil
	default:
		home, ok := env.Home(t.User)
		if !ok {
			return "~" + t.User, nil
		}
		return home, nil
	}
}

func lookupVar(name string, env Environ) (value.Value, error) {
	if result, ok, err := ResolveNamespace(env, name); ok {
		if err != nil {
			return value.Value{}, err
		}
		return value.Str(result), nil
	}
	bare, _, _ := IsSuperOrGlobal(name)
	if v, ok := env.Get(name); ok {
		return v, nil
	}
	if v, ok := env.Get(bare); ok {
		return v, nil
	}
	return value.Str(""), nil
}

func expandProcSubst(p syntax.ProcSubst, env Environ) (alts []string, quoted bool, err error) {
	switch p.Kind {
	case syntax.ProcStatus:
		_, status, rerr := env.RunCapture(p.Source, false)
		if rerr != nil {
			return nil, true, rerr
		}
		return []string{strconv.Itoa(status)}, true, nil
	case syntax.ProcSplit:
		lines, _, rerr := env.RunCapture(p.Source, true)
		if rerr != nil {
			return nil, false, rerr
		}
		if p.Quoted {
			return []string{strings.Join(lines, "\n")}, true, nil
		}
		return lines, false, nil
	default:
		lines, _, rerr := env.RunCapture(p.Source, true)
		if rerr != nil {
			return nil, true, rerr
		}
		joined := strings.Join(lines, "\n")
		joined = strings.TrimRight(joined, "\n")
		return []string{joined}, true, nil
	}
}

func expandMethod(m syntax.MethodExpr, env Environ) (alts []string, quoted bool, err error) {
	argFields, _, err := expandParts(m.Var, env)
	if err != nil {
		return nil, true, err
	}
	var pat string
	hasPattern := m.HasPattern
	if hasPattern {
		patFields, _, perr := expandParts(m.Pattern, env)
		if perr != nil {
			return nil, true, perr
		}
		pat = strings.Join(patFields, " ")
	}

	if m.Kind == syntax.MethodArray {
		arg := ""
		if len(argFields) > 0 {
			arg = argFields[0]
		}
		v, ok := env.Get(arg)
		var elems []string
		if ok {
			elems = v.Elements()
		} else {
			elems = argFields
		}
		out, err := ArrayMethod(m.Name, elems, pat, hasPattern)
		if err != nil {
			return nil, false, err
		}
		return out, false, nil
	}

	arg := strings.Join(argFields, " ")
	if v, ok := env.Get(arg); ok {
		arg = v.String()
	}
	out, err := StringMethod(m.Name, arg, pat, hasPattern)
	if err != nil {
		return nil, true, err
	}
	return []string{out}, true, nil
}
