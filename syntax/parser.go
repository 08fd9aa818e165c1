package syntax

import (
	"strconv"
	"strings"
)

// StatementParser consumes the RawStatements produced by a
// StatementSplitter across however many Terminator-completed buffers it
// takes, and assembles them into a tree of top-level Statements, tracking a
// stack of open If/While/For/Function/Match blocks (spec.md §4.2,
// "block-building pass").
type StatementParser struct {
	stack []*frame
}

// frame is one partially-built block awaiting its `end` (or, for If/Match,
// an `else`/`case` continuation).
type frame struct {
	kind   frameKind
	ifS    *IfStmt
	whileS *WhileStmt
	forS   *ForStmt
	fnS    *FunctionStmt
	matchS *MatchStmt

	// target is where subsequent plain statements get appended until the
	// frame's shape changes (e.g. `else` flips an If frame's target from
	// Success to Failure).
	target *[]Statement

	// curCase indexes the MatchStmt.Cases slot currently being filled, for
	// frameMatch.
	curCase int
}

type frameKind uint8

const (
	frameIf frameKind = iota
	frameWhile
	frameFor
	frameFunction
	frameMatch
)

// NewStatementParser returns an empty StatementParser.
func NewStatementParser() *StatementParser { return &StatementParser{} }

// Feed parses one RawStatement's text and either appends it to the
// innermost open block, opens a new block frame, closes one, or — when the
// stack is empty afterward — returns a completed top-level Statement ready
// for the executor.
func (p *StatementParser) Feed(raw RawStatement) (Statement, error) {
	stmt, err := p.parseOne(raw.Text)
	if err != nil {
		return nil, err
	}
	if raw.Background && stmt != nil {
		stmt = wrapBackground(stmt)
	}
	return p.dispatch(stmt, raw.Conn)
}

func wrapBackground(s Statement) Statement {
	if ps, ok := s.(PipelineStmt); ok && ps.Pipeline != nil {
		ps.Pipeline.Mode = ModeBackground
		return ps
	}
	return s
}

// dispatch routes a freshly parsed statement either onto the current
// frame's target slice, into frame-control (opening/closing/continuing a
// block), or back to the caller as a completed top-level statement.
func (p *StatementParser) dispatch(stmt Statement, conn Connective) (Statement, error) {
	switch s := stmt.(type) {
	case IfStmt:
		f := &frame{kind: frameIf, ifS: &s}
		f.target = &f.ifS.Success
		p.push(f)
		return nil, nil
	case ElseIfStmt:
		top := p.topFrame()
		if top == nil || top.kind != frameIf {
			return nil, newErr(MalformedStatement, 0)
		}
		top.ifS.ElseIfs = append(top.ifS.ElseIfs, s)
		top.target = &top.ifS.ElseIfs[len(top.ifS.ElseIfs)-1].Body
		return nil, nil
	case ElseStmt:
		top := p.topFrame()
		if top == nil || top.kind != frameIf {
			return nil, newErr(MalformedStatement, 0)
		}
		top.target = &top.ifS.Failure
		return nil, nil
	case WhileStmt:
		f := &frame{kind: frameWhile, whileS: &s}
		f.target = &f.whileS.Body
		p.push(f)
		return nil, nil
	case ForStmt:
		f := &frame{kind: frameFor, forS: &s}
		f.target = &f.forS.Body
		p.push(f)
		return nil, nil
	case FunctionStmt:
		f := &frame{kind: frameFunction, fnS: &s}
		f.target = &f.fnS.Body
		p.push(f)
		return nil, nil
	case MatchStmt:
		f := &frame{kind: frameMatch, matchS: &s, curCase: -1}
		var discard []Statement
		f.target = &discard
		p.push(f)
		return nil, nil
	case CaseClause:
		top := p.topFrame()
		if top == nil || top.kind != frameMatch {
			return nil, newErr(MalformedStatement, 0)
		}
		top.matchS.Cases = append(top.matchS.Cases, s)
		top.curCase = len(top.matchS.Cases) - 1
		top.target = &top.matchS.Cases[top.curCase].Body
		return nil, nil
	case EndStmt:
		return p.pop()
	default:
		if top := p.topFrame(); top != nil {
			*top.target = append(*top.target, applyConn(stmt, conn))
			return nil, nil
		}
		return applyConn(stmt, conn), nil
	}
}

func applyConn(s Statement, conn Connective) Statement {
	switch conn {
	case ConnAnd:
		return AndStmt{Inner: s}
	case ConnOr:
		return OrStmt{Inner: s}
	default:
		return s
	}
}

func (p *StatementParser) push(f *frame) { p.stack = append(p.stack, f) }

func (p *StatementParser) topFrame() *frame {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

// pop closes the innermost frame, converting it into a Statement and either
// handing it to the next frame out (nested blocks) or returning it as a
// completed top-level statement.
func (p *StatementParser) pop() (Statement, error) {
	n := len(p.stack)
	if n == 0 {
		return nil, newErr(MalformedStatement, 0)
	}
	f := p.stack[n-1]
	p.stack = p.stack[:n-1]

	var closed Statement
	switch f.kind {
	case frameIf:
		closed = *f.ifS
	case frameWhile:
		closed = *f.whileS
	case frameFor:
		closed = *f.forS
	case frameFunction:
		closed = *f.fnS
	case frameMatch:
		closed = *f.matchS
	}

	if parent := p.topFrame(); parent != nil {
		*parent.target = append(*parent.target, closed)
		return nil, nil
	}
	return closed, nil
}

// parseOne turns one statement's raw text into a Statement, dispatching on
// its leading keyword (spec.md §4.2).
func (p *StatementParser) parseOne(text string) (Statement, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "#") {
		return nil, nil
	}
	fields := lexFields(text)
	if len(fields) == 0 {
		return nil, nil
	}
	head := fields[0]

	switch head {
	case "end":
		return EndStmt{}, nil
	case "break":
		return BreakStmt{}, nil
	case "continue":
		return ContinueStmt{}, nil
	case "default":
		return DefaultStmt{}, nil
	case "let":
		act, err := parseLocalAction(fields[1:])
		if err != nil {
			return nil, err
		}
		return LetStmt{Action: act}, nil
	case "export":
		act, err := parseLocalAction(fields[1:])
		if err != nil {
			return nil, err
		}
		return ExportStmt{Action: act}, nil
	case "if":
		cond, err := parsePipelineFields(fields[1:])
		if err != nil {
			return nil, err
		}
		return IfStmt{Cond: &PipelineStmt{Pipeline: cond}}, nil
	case "else":
		if len(fields) > 1 && fields[1] == "if" {
			cond, err := parsePipelineFields(fields[2:])
			if err != nil {
				return nil, err
			}
			return ElseIfStmt{Cond: PipelineStmt{Pipeline: cond}}, nil
		}
		return ElseStmt{}, nil
	case "while":
		cond, err := parsePipelineFields(fields[1:])
		if err != nil {
			return nil, err
		}
		return WhileStmt{Cond: PipelineStmt{Pipeline: cond}}, nil
	case "for":
		return parseFor(fields[1:])
	case "match":
		if len(fields) < 2 {
			return nil, newErr(MalformedStatement, 0)
		}
		w, err := parseWord(fields[1])
		if err != nil {
			return nil, err
		}
		return MatchStmt{Expr: w}, nil
	case "case":
		return parseCase(fields[1:])
	case "fn":
		return parseFn(fields[1:])
	case "time":
		inner, err := p.parseOne(strings.TrimSpace(strings.TrimPrefix(text, "time")))
		if err != nil || inner == nil {
			return nil, err
		}
		return TimeStmt{Inner: inner}, nil
	case "and":
		inner, err := p.parseOne(strings.TrimSpace(strings.TrimPrefix(text, "and")))
		if err != nil || inner == nil {
			return nil, err
		}
		return AndStmt{Inner: inner}, nil
	case "or":
		inner, err := p.parseOne(strings.TrimSpace(strings.TrimPrefix(text, "or")))
		if err != nil || inner == nil {
			return nil, err
		}
		return OrStmt{Inner: inner}, nil
	case "not", "!":
		inner, err := p.parseOne(strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(text, "not"), "!")))
		if err != nil || inner == nil {
			return nil, err
		}
		return NotStmt{Inner: inner}, nil
	}

	pl, err := parsePipelineFields(fields)
	if err != nil {
		return nil, err
	}
	return PipelineStmt{Pipeline: pl}, nil
}

func parseLocalAction(fields []string) (LocalAction, error) {
	var act LocalAction
	act.Op = OpAssign
	i := 0
	for i < len(fields) {
		f := fields[i]
		if f == "=" || f == "+=" || f == "-=" || f == "*=" || f == "/=" || f == "**=" {
			act.Op = assignOpFor(f)
			i++
			break
		}
		name, typ := splitTypeAnnotation(f)
		act.Keys = append(act.Keys, name)
		act.Types = append(act.Types, typ)
		i++
	}
	for i < len(fields) {
		f := fields[i]
		// An array literal `[a b c]` contributes one value per element.
		if len(f) >= 2 && f[0] == '[' && f[len(f)-1] == ']' {
			for _, elem := range lexFields(f[1 : len(f)-1]) {
				w, err := parseWord(elem)
				if err != nil {
					return act, err
				}
				act.Values = append(act.Values, w)
			}
			i++
			continue
		}
		w, err := parseWord(f)
		if err != nil {
			return act, err
		}
		act.Values = append(act.Values, w)
		i++
	}
	return act, nil
}

func assignOpFor(tok string) AssignOp {
	switch tok {
	case "+=":
		return OpAddAssign
	case "-=":
		return OpSubAssign
	case "*=":
		return OpMulAssign
	case "/=":
		return OpDivAssign
	case "**=":
		return OpPowAssign
	default:
		return OpAssign
	}
}

func splitTypeAnnotation(f string) (name string, typ *TypeExpr) {
	idx := strings.IndexByte(f, ':')
	if idx < 0 {
		return f, nil
	}
	name = f[:idx]
	spec := f[idx+1:]
	te := &TypeExpr{}
	if strings.HasSuffix(spec, "[]") {
		te.Array = true
		spec = strings.TrimSuffix(spec, "[]")
	}
	switch {
	case strings.HasPrefix(spec, "hmap[") && strings.HasSuffix(spec, "]"):
		te.HashMap = true
		te.Name = spec[len("hmap[") : len(spec)-1]
	case strings.HasPrefix(spec, "bmap[") && strings.HasSuffix(spec, "]"):
		te.BTree = true
		te.Name = spec[len("bmap[") : len(spec)-1]
	default:
		te.Name = spec
	}
	return name, te
}

func parseFor(fields []string) (Statement, error) {
	inIdx := -1
	for i, f := range fields {
		if f == "in" {
			inIdx = i
			break
		}
	}
	if inIdx < 0 {
		return nil, newErr(MalformedStatement, 0)
	}
	f := ForStmt{Vars: append([]string(nil), fields[:inIdx]...)}
	for _, v := range fields[inIdx+1:] {
		if items, ok := parseForRangeLiteral(v); ok {
			for _, item := range items {
				f.Values = append(f.Values, Word{Normal{Text: item}})
			}
			continue
		}
		w, err := parseWord(v)
		if err != nil {
			return nil, err
		}
		f.Values = append(f.Values, w)
	}
	return f, nil
}

// parseForRangeLiteral recognises a bare `lo..hi` / `lo..=hi` numeric
// range word (spec.md §6, `for x in 1..=10`), distinct from the braced
// `{lo..hi}` brace-expansion range: half-open by default, an extra '='
// after the dots makes it inclusive of hi. ok is false for anything that
// isn't a two-sided integer range, so ordinary words fall through to
// parseWord unchanged.
func parseForRangeLiteral(field string) (items []string, ok bool) {
	idx := strings.Index(field, "..")
	if idx <= 0 {
		return nil, false
	}
	loStr, rest := field[:idx], field[idx+2:]
	inclusive := strings.HasPrefix(rest, "=")
	if inclusive {
		rest = rest[1:]
	}
	lo, err1 := strconv.Atoi(loStr)
	hi, err2 := strconv.Atoi(rest)
	if err1 != nil || err2 != nil {
		return nil, false
	}
	if lo <= hi {
		end := hi
		if inclusive {
			end++
		}
		for v := lo; v < end; v++ {
			items = append(items, strconv.Itoa(v))
		}
	} else {
		end := hi
		if inclusive {
			end--
		}
		for v := lo; v > end; v-- {
			items = append(items, strconv.Itoa(v))
		}
	}
	return items, true
}

func parseCase(fields []string) (Statement, error) {
	var c CaseClause
	i := 0
	if i < len(fields) && fields[i] == "_" {
		i++
	} else if i < len(fields) && fields[i] != "if" && !strings.HasPrefix(fields[i], "@") {
		w, err := parseWord(fields[i])
		if err != nil {
			return nil, err
		}
		c.Value = w
		c.HasValue = true
		i++
	}
	if i < len(fields) && strings.HasPrefix(fields[i], "@") {
		c.Binding = fields[i]
		i++
	}
	if i < len(fields) && fields[i] == "if" {
		cond, err := parsePipelineFields(fields[i+1:])
		if err != nil {
			return nil, err
		}
		c.Guard = PipelineStmt{Pipeline: cond}
		c.HasGuard = true
	}
	return c, nil
}

func parseFn(fields []string) (Statement, error) {
	if len(fields) == 0 {
		return nil, newErr(MalformedStatement, 0)
	}
	fn := FunctionStmt{Name: fields[0]}
	for _, f := range fields[1:] {
		if strings.HasPrefix(f, "--") {
			fn.Description = strings.TrimPrefix(f, "--")
			continue
		}
		name, typ := splitTypeAnnotation(f)
		fn.Args = append(fn.Args, FuncArgDecl{Name: name, Type: typ})
	}
	return fn, nil
}

// parsePipelineFields groups a field list into a Pipeline, splitting on
// "|", "^|", "&|" (pipe variants) and recognising trailing "&"/"&!"
// background/disown markers and redirect tokens (spec.md §3, "Pipeline.").
func parsePipelineFields(fields []string) (*Pipeline, error) {
	pl := &Pipeline{}
	var cur PipeItem
	var args []Word

	flushItem := func(kind JobKind, from PipeFrom) error {
		cur.Job.Args = args
		cur.Job.Kind = kind
		cur.Job.From = from
		pl.Items = append(pl.Items, cur)
		cur = PipeItem{}
		args = nil
		return nil
	}

	i := 0
	for i < len(fields) {
		f := fields[i]
		switch {
		case f == "|":
			if err := flushItem(JobPipe, FromStdout); err != nil {
				return nil, err
			}
			i++
			continue
		case f == "^|":
			if err := flushItem(JobPipe, FromStderr); err != nil {
				return nil, err
			}
			i++
			continue
		case f == "&|":
			if err := flushItem(JobPipe, FromBoth); err != nil {
				return nil, err
			}
			i++
			continue
		case f == "&!":
			pl.Mode = ModeDisown
			i++
			continue
		case f == "&" && i == len(fields)-1:
			pl.Mode = ModeBackground
			i++
			continue
		case f == ">" || f == ">>":
			if i+1 >= len(fields) {
				return nil, newErr(MalformedStatement, 0)
			}
			w, err := parseWord(fields[i+1])
			if err != nil {
				return nil, err
			}
			cur.Outputs = append(cur.Outputs, OutputRedirect{File: w, Append: f == ">>", From: FromStdout})
			i += 2
			continue
		case f == "^>" || f == "^>>":
			w, err := parseWord(fields[i+1])
			if err != nil {
				return nil, err
			}
			cur.Outputs = append(cur.Outputs, OutputRedirect{File: w, Append: f == "^>>", From: FromStderr})
			i += 2
			continue
		case f == "&>" || f == "&>>":
			w, err := parseWord(fields[i+1])
			if err != nil {
				return nil, err
			}
			cur.Outputs = append(cur.Outputs, OutputRedirect{File: w, Append: f == "&>>", From: FromBoth})
			i += 2
			continue
		case f == "<":
			w, err := parseWord(fields[i+1])
			if err != nil {
				return nil, err
			}
			cur.Inputs = append(cur.Inputs, InputRedirect{Source: w, TargetFD: 0})
			i += 2
			continue
		default:
			w, err := parseWord(f)
			if err != nil {
				return nil, err
			}
			args = append(args, w)
			i++
		}
	}
	if err := flushItem(JobLast, FromStdout); err != nil {
		return nil, err
	}
	return pl, nil
}
