package syntax

import "strings"

// Printer renders a Statement tree back to source text. It is used to
// check the round-trip property (spec.md §8): parse(print(parse(x))) ==
// parse(x). Printer output is not guaranteed byte-identical to arbitrary
// input (whitespace and quoting style are normalised), only semantically
// equivalent on re-parse.
type Printer struct {
	indent string
}

// NewPrinter returns a Printer using a tab for each indentation level.
func NewPrinter() *Printer { return &Printer{indent: "\t"} }

// Print renders a full statement list, one top-level statement per line
// (nested statements indented under their block).
func (pr *Printer) Print(stmts []Statement) string {
	var b strings.Builder
	pr.printBlock(&b, stmts, 0)
	return b.String()
}

func (pr *Printer) printBlock(b *strings.Builder, stmts []Statement, depth int) {
	for _, s := range stmts {
		pr.printStmt(b, s, depth)
	}
}

func (pr *Printer) line(b *strings.Builder, depth int, text string) {
	for i := 0; i < depth; i++ {
		b.WriteString(pr.indent)
	}
	b.WriteString(text)
	b.WriteByte('\n')
}

func (pr *Printer) printStmt(b *strings.Builder, s Statement, depth int) {
	switch v := s.(type) {
	case LetStmt:
		pr.line(b, depth, "let "+printLocalAction(v.Action))
	case ExportStmt:
		pr.line(b, depth, "export "+printLocalAction(v.Action))
	case IfStmt:
		cond := ""
		if v.Cond != nil && v.Cond.Pipeline != nil {
			cond = printPipeline(v.Cond.Pipeline)
		}
		pr.line(b, depth, "if "+cond)
		pr.printBlock(b, v.Success, depth+1)
		for _, ei := range v.ElseIfs {
			ec := ""
			if ps, ok := ei.Cond.(PipelineStmt); ok && ps.Pipeline != nil {
				ec = printPipeline(ps.Pipeline)
			}
			pr.line(b, depth, "else if "+ec)
			pr.printBlock(b, ei.Body, depth+1)
		}
		if len(v.Failure) > 0 {
			pr.line(b, depth, "else")
			pr.printBlock(b, v.Failure, depth+1)
		}
		pr.line(b, depth, "end")
	case WhileStmt:
		cond := ""
		if ps, ok := v.Cond.(PipelineStmt); ok && ps.Pipeline != nil {
			cond = printPipeline(ps.Pipeline)
		}
		pr.line(b, depth, "while "+cond)
		pr.printBlock(b, v.Body, depth+1)
		pr.line(b, depth, "end")
	case ForStmt:
		vals := make([]string, len(v.Values))
		for i, w := range v.Values {
			vals[i] = printWord(w)
		}
		pr.line(b, depth, "for "+strings.Join(v.Vars, " ")+" in "+strings.Join(vals, " "))
		pr.printBlock(b, v.Body, depth+1)
		pr.line(b, depth, "end")
	case MatchStmt:
		pr.line(b, depth, "match "+printWord(v.Expr))
		for _, c := range v.Cases {
			pr.printStmt(b, c, depth+1)
			pr.printBlock(b, c.Body, depth+2)
		}
		pr.line(b, depth, "end")
	case CaseClause:
		head := "case"
		if v.HasValue {
			head += " " + printWord(v.Value)
		}
		if v.Binding != "" {
			head += " " + v.Binding
		}
		if v.HasGuard {
			if ps, ok := v.Guard.(PipelineStmt); ok && ps.Pipeline != nil {
				head += " if " + printPipeline(ps.Pipeline)
			}
		}
		pr.line(b, depth, head)
	case FunctionStmt:
		head := "fn " + v.Name
		for _, a := range v.Args {
			head += " " + a.Name
			if a.Type != nil {
				head += ":" + printTypeExpr(a.Type)
			}
		}
		if v.Description != "" {
			head += " --" + v.Description
		}
		pr.line(b, depth, head)
		pr.printBlock(b, v.Body, depth+1)
		pr.line(b, depth, "end")
	case PipelineStmt:
		if v.Pipeline != nil {
			pr.line(b, depth, printPipeline(v.Pipeline))
		}
	case TimeStmt:
		pr.printInline(b, depth, "time ", v.Inner)
	case AndStmt:
		pr.printInline(b, depth, "and ", v.Inner)
	case OrStmt:
		pr.printInline(b, depth, "or ", v.Inner)
	case NotStmt:
		pr.printInline(b, depth, "not ", v.Inner)
	case BreakStmt:
		pr.line(b, depth, "break")
	case ContinueStmt:
		pr.line(b, depth, "continue")
	case EndStmt:
		pr.line(b, depth, "end")
	case ElseStmt:
		pr.line(b, depth, "else")
	case DefaultStmt:
		pr.line(b, depth, "default")
	}
}

// printInline renders a one-line wrapper statement (time/and/or/not) by
// printing its inner statement to a scratch builder and splicing the
// prefix onto the first line.
func (pr *Printer) printInline(b *strings.Builder, depth int, prefix string, inner Statement) {
	var scratch strings.Builder
	pr.printStmt(&scratch, inner, 0)
	text := strings.TrimSuffix(scratch.String(), "\n")
	pr.line(b, depth, prefix+text)
}

func printLocalAction(a LocalAction) string {
	var parts []string
	for i, k := range a.Keys {
		s := k
		if i < len(a.Types) && a.Types[i] != nil {
			s += ":" + printTypeExpr(a.Types[i])
		}
		parts = append(parts, s)
	}
	op := "="
	switch a.Op {
	case OpAddAssign:
		op = "+="
	case OpSubAssign:
		op = "-="
	case OpMulAssign:
		op = "*="
	case OpDivAssign:
		op = "/="
	case OpPowAssign:
		op = "**="
	}
	var vals []string
	for _, v := range a.Values {
		vals = append(vals, printWord(v))
	}
	return strings.Join(parts, " ") + " " + op + " " + strings.Join(vals, " ")
}

func printTypeExpr(t *TypeExpr) string {
	s := t.Name
	switch {
	case t.HashMap:
		s = "hmap[" + t.Name + "]"
	case t.BTree:
		s = "bmap[" + t.Name + "]"
	}
	if t.Array {
		s += "[]"
	}
	return s
}

func printPipeline(p *Pipeline) string {
	var parts []string
	for i, item := range p.Items {
		var args []string
		for _, a := range item.Job.Args {
			args = append(args, printWord(a))
		}
		seg := strings.Join(args, " ")
		for _, in := range item.Inputs {
			seg += " < " + printWord(in.Source)
		}
		for _, out := range item.Outputs {
			op := ">"
			if out.Append {
				op = ">>"
			}
			switch out.From {
			case FromStderr:
				op = "^" + op
			case FromBoth:
				op = "&" + op
			}
			seg += " " + op + " " + printWord(out.File)
		}
		parts = append(parts, seg)
		if i < len(p.Items)-1 {
			switch item.Job.From {
			case FromStderr:
				parts = append(parts, "^|")
			case FromBoth:
				parts = append(parts, "&|")
			default:
				parts = append(parts, "|")
			}
		}
	}
	out := strings.Join(parts, " ")
	switch p.Mode {
	case ModeBackground:
		out += " &"
	case ModeDisown:
		out += " &!"
	}
	return out
}

func printWord(w Word) string {
	var b strings.Builder
	for _, p := range w {
		switch v := p.(type) {
		case Normal:
			b.WriteString(v.Text)
		case Tilde:
			b.WriteByte('~')
			switch {
			case v.Plus:
				b.WriteByte('+')
			case v.Minus:
				b.WriteByte('-')
			default:
				b.WriteString(v.User)
			}
			if v.HasN {
				b.WriteString(itoaSimple(v.N))
			}
		case VarRef:
			b.WriteByte('$')
			b.WriteString(v.Name)
			b.WriteString(printSelector(v.Selector))
		case ArrayRef:
			b.WriteByte('@')
			b.WriteString(v.Name)
			b.WriteString(printSelector(v.Selector))
		case ProcSubst:
			switch v.Kind {
			case ProcSplit:
				b.WriteByte('@')
			case ProcStatus:
				b.WriteByte('!')
			default:
				b.WriteByte('$')
			}
			b.WriteByte('(')
			b.WriteString(v.Source)
			b.WriteByte(')')
		case ArithExprPart:
			b.WriteString("$((")
			b.WriteString(printArith(v.Expr))
			b.WriteString("))")
		case BraceExpr:
			b.WriteByte('{')
			if v.IsRange {
				b.WriteString(v.Lo)
				b.WriteString("..")
				if v.Step != "" {
					b.WriteString(v.Step)
					b.WriteString("..")
				}
				b.WriteString(v.Hi)
			} else {
				var alts []string
				for _, a := range v.Alternatives {
					alts = append(alts, printWord(a))
				}
				b.WriteString(strings.Join(alts, ","))
			}
			b.WriteByte('}')
		case MethodExpr:
			if v.Kind == MethodArray {
				b.WriteByte('@')
			} else {
				b.WriteByte('$')
			}
			b.WriteString(v.Name)
			b.WriteByte('(')
			b.WriteString(printWord(v.Var))
			if v.HasPattern {
				b.WriteString(", ")
				b.WriteString(printWord(v.Pattern))
			}
			b.WriteByte(')')
		}
	}
	return b.String()
}

func printSelector(sel *Selector) string {
	if sel == nil {
		return ""
	}
	switch sel.Kind {
	case SelIndex:
		return "[" + itoaSimple(sel.Index) + "]"
	case SelRange:
		var b strings.Builder
		b.WriteByte('[')
		if sel.HasLo {
			b.WriteString(printWord(sel.Lo))
		}
		b.WriteString("..")
		if sel.Inclusive {
			b.WriteByte('=')
		}
		if sel.HasHi {
			b.WriteString(printWord(sel.Hi))
		}
		b.WriteByte(']')
		return b.String()
	case SelKey:
		return "[" + printWord(sel.Key) + "]"
	default:
		return ""
	}
}

func printArith(n ArithNode) string {
	switch v := n.(type) {
	case ArithLit:
		return v.Text
	case ArithVar:
		return v.Name
	case ArithUnaryMinus:
		return "-" + printArith(v.X)
	case ArithParen:
		return "(" + printArith(v.X) + ")"
	case ArithBinOp:
		return printArith(v.X) + " " + arithOpSymbol(v.Op) + " " + printArith(v.Y)
	}
	return ""
}

func arithOpSymbol(op ArithOp) string {
	switch op {
	case OpBitOr:
		return "|"
	case OpBitXor:
		return "^"
	case OpBitAnd:
		return "&"
	case OpShl:
		return "<<"
	case OpShr:
		return ">>"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpPow:
		return "**"
	}
	return "?"
}

func itoaSimple(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		digits = append([]byte{'-'}, digits...)
	}
	return string(digits)
}
