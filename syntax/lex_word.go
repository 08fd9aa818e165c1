package syntax

import (
	"strconv"
	"strings"
)

// wordLexer splits the text of one already-unwrapped statement into
// top-level fields (respecting quotes and nested contexts) and parses each
// field into a Word ([]WordPart), per the word-token grammar (spec.md §4.3).
type wordLexer struct {
	src string
	pos int
}

// lexFields splits src on unquoted, unnested whitespace and returns each
// field's raw text verbatim (quotes/escapes still present, stripped later
// per-part by parseWord).
func lexFields(src string) []string {
	var fields []string
	var cur strings.Builder
	var stack []ctxKind
	quote := QuoteNone
	escape := false
	has := false

	flush := func() {
		if has {
			fields = append(fields, cur.String())
			cur.Reset()
			has = false
		}
	}

	i, n := 0, len(src)
	for i < n {
		b := src[i]
		if escape {
			cur.WriteByte(b)
			has = true
			escape = false
			i++
			continue
		}
		if b == '\\' && quote != QuoteSingle {
			cur.WriteByte(b)
			escape = true
			has = true
			i++
			continue
		}
		if quote == QuoteSingle {
			cur.WriteByte(b)
			has = true
			if b == '\'' {
				quote = QuoteNone
			}
			i++
			continue
		}
		if quote == QuoteDouble {
			cur.WriteByte(b)
			has = true
			if b == '"' {
				quote = QuoteNone
			}
			i++
			continue
		}
		switch b {
		case '\'':
			quote = QuoteSingle
			cur.WriteByte(b)
			has = true
			i++
			continue
		case '"':
			quote = QuoteDouble
			cur.WriteByte(b)
			has = true
			i++
			continue
		case '$', '@':
			cur.WriteByte(b)
			has = true
			if i+1 < n && src[i+1] == '(' {
				stack = append(stack, ctxSubshell)
				cur.WriteByte('(')
				i += 2
				continue
			}
			if i+1 < n && src[i+1] == '{' {
				stack = append(stack, ctxBracedVar)
				cur.WriteByte('{')
				i += 2
				continue
			}
			i++
			continue
		case '(':
			stack = append(stack, ctxSubshell)
			cur.WriteByte(b)
			has = true
			i++
			continue
		case ')':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			cur.WriteByte(b)
			has = true
			i++
			continue
		case '[':
			stack = append(stack, ctxArray)
			cur.WriteByte(b)
			has = true
			i++
			continue
		case ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			cur.WriteByte(b)
			has = true
			i++
			continue
		case '{':
			stack = append(stack, ctxBrace)
			cur.WriteByte(b)
			has = true
			i++
			continue
		case '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			cur.WriteByte(b)
			has = true
			i++
			continue
		}
		if len(stack) == 0 && (b == ' ' || b == '\t') {
			flush()
			i++
			continue
		}
		cur.WriteByte(b)
		has = true
		i++
	}
	flush()
	return fields
}

// parseWord turns one raw field (as returned by lexFields) into a Word.
func parseWord(raw string) (Word, error) {
	var w Word
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			w = append(w, Normal{Text: lit.String()})
			lit.Reset()
		}
	}

	i, n := 0, len(raw)
	quote := QuoteNone
	for i < n {
		b := raw[i]

		if b == '\\' && quote != QuoteSingle && i+1 < n {
			lit.WriteByte(raw[i+1])
			i += 2
			continue
		}
		if quote == QuoteSingle {
			if b == '\'' {
				quote = QuoteNone
				i++
				continue
			}
			lit.WriteByte(b)
			i++
			continue
		}
		if b == '\'' && quote == QuoteNone {
			quote = QuoteSingle
			i++
			continue
		}
		if b == '"' {
			if quote == QuoteDouble {
				quote = QuoteNone
			} else {
				quote = QuoteDouble
			}
			i++
			continue
		}

		if (b == '$' || b == '@') && i+1 < n {
			sigil := b
			if raw[i+1] == '(' {
				if i+2 < n && raw[i+2] == '(' && sigil == '$' {
					end, expr, ok := matchArith(raw, i+3)
					if ok {
						flushLit()
						w = append(w, ArithExprPart{Expr: parseArithExpr(expr)})
						i = end
						continue
					}
				}
				end, inner, ok := matchParen(raw, i+2)
				if ok {
					flushLit()
					kind := ProcStdout
					if sigil == '@' {
						kind = ProcSplit
					}
					w = append(w, ProcSubst{Source: inner, Kind: kind, Quoted: quote == QuoteDouble})
					i = end
					continue
				}
			}
			if raw[i+1] == '{' {
				end, name, sel, ok := matchBraced(raw, i+2)
				if ok {
					end, sel = matchSelector(raw, end, sel)
					flushLit()
					if sigil == '$' {
						w = append(w, VarRef{Name: name, Quoted: quote == QuoteDouble, Selector: sel})
					} else {
						w = append(w, ArrayRef{Name: name, Quoted: quote == QuoteDouble, Selector: sel})
					}
					i = end
					continue
				}
			}
			if isIdentStart(raw[i+1]) {
				end, name := matchIdent(raw, i+1)
				end, sel := matchSelector(raw, end, nil)
				flushLit()
				if sigil == '$' {
					w = append(w, VarRef{Name: name, Quoted: quote == QuoteDouble, Selector: sel})
				} else {
					w = append(w, ArrayRef{Name: name, Quoted: quote == QuoteDouble, Selector: sel})
				}
				i = end
				continue
			}
		}

		if b == '~' && quote == QuoteNone && i == 0 {
			end, tl := matchTilde(raw, i)
			flushLit()
			w = append(w, tl)
			i = end
			continue
		}

		if b == '{' && quote == QuoteNone {
			end, be, ok := matchBrace(raw, i)
			if ok {
				flushLit()
				w = append(w, be)
				i = end
				continue
			}
		}

		lit.WriteByte(b)
		i++
	}
	flushLit()
	if len(w) == 0 {
		w = Word{Normal{Text: ""}}
	}
	return w, nil
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9') || b == ':'
}

func matchIdent(s string, i int) (end int, name string) {
	start := i
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	return i, s[start:i]
}

// matchParen returns the index just past the matching ')' for a '(' opened
// at position i, and the text in between, tracking nested parens/quotes.
func matchParen(s string, i int) (end int, inner string, ok bool) {
	depth := 1
	start := i
	quote := QuoteNone
	for i < len(s) {
		b := s[i]
		switch {
		case b == '\\' && quote != QuoteSingle:
			i += 2
			continue
		case quote == QuoteSingle:
			if b == '\'' {
				quote = QuoteNone
			}
		case quote == QuoteDouble:
			if b == '"' {
				quote = QuoteNone
			}
		case b == '\'':
			quote = QuoteSingle
		case b == '"':
			quote = QuoteDouble
		case b == '(':
			depth++
		case b == ')':
			depth--
			if depth == 0 {
				return i + 1, s[start:i], true
			}
		}
		i++
	}
	return i, "", false
}

// matchArith returns the index just past the closing "))" for an arith
// expression opened at "$((", along with the raw inner text.
func matchArith(s string, i int) (end int, inner string, ok bool) {
	depth := 1
	start := i
	for i < len(s) {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth == 1 && i+1 < len(s) && s[i+1] == ')' {
				return i + 2, s[start:i], true
			}
			if depth == 1 {
				return i + 1, s[start:i], true
			}
			depth--
		}
		i++
	}
	return i, "", false
}

func matchBraced(s string, i int) (end int, name string, sel *Selector, ok bool) {
	start := i
	for i < len(s) && s[i] != '}' {
		i++
	}
	if i >= len(s) {
		return i, "", nil, false
	}
	body := s[start:i]
	name = body
	// A trailing "[...]" selector is not part of the braced body itself;
	// the caller applies matchSelector right after the closing brace.
	return i + 1, name, sel, true
}

// matchSelector recognises a `[sel]` suffix starting at i (spec.md §4.3,
// "Selector"), immediately after a `$name`/`@name` or `${name}`/`@{name}`
// reference. fallback is returned unchanged when no '[' is present there.
func matchSelector(s string, i int, fallback *Selector) (end int, sel *Selector) {
	if i >= len(s) || s[i] != '[' {
		return i, fallback
	}
	start := i + 1
	depth := 1
	j := start
	for j < len(s) && depth > 0 {
		switch s[j] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return j + 1, parseSelectorBody(s[start:j])
			}
		}
		j++
	}
	return i, fallback
}

// parseSelectorBody classifies a selector's bracketed contents into one of
// the four selector kinds (spec.md §4.3): empty/".." is the whole-value
// selector, "lo..hi"/"lo..=hi"/"lo.."/"..hi" is a range (the extra '='
// makes Hi inclusive), a bare signed integer is an index, anything else is
// a literal key.
func parseSelectorBody(body string) *Selector {
	if body == "" || body == ".." {
		return &Selector{Kind: SelAll}
	}
	if idx := strings.Index(body, ".."); idx >= 0 {
		loStr, rest := body[:idx], body[idx+2:]
		sel := &Selector{Kind: SelRange}
		if strings.HasPrefix(rest, "=") {
			sel.Inclusive = true
			rest = rest[1:]
		}
		if loStr != "" {
			sel.HasLo, sel.Lo = true, Word{Normal{Text: loStr}}
		}
		if rest != "" {
			sel.HasHi, sel.Hi = true, Word{Normal{Text: rest}}
		}
		return sel
	}
	if n, err := strconv.Atoi(strings.TrimSpace(body)); err == nil {
		return &Selector{Kind: SelIndex, Index: n}
	}
	return &Selector{Kind: SelKey, Key: Word{Normal{Text: body}}}
}

func matchBrace(s string, i int) (end int, be BraceExpr, ok bool) {
	depth := 0
	start := i
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				body := s[start+1 : j]
				if strings.Contains(body, "..") {
					parts := strings.SplitN(body, "..", 3)
					be.IsRange = true
					if len(parts) == 2 {
						be.Lo, be.Hi = parts[0], parts[1]
					} else if len(parts) == 3 {
						be.Lo, be.Step, be.Hi = parts[0], parts[1], parts[2]
					}
					return j + 1, be, true
				}
				if !strings.Contains(body, ",") {
					return i, BraceExpr{}, false
				}
				for _, alt := range strings.Split(body, ",") {
					aw, _ := parseWord(alt)
					be.Alternatives = append(be.Alternatives, aw)
				}
				return j + 1, be, true
			}
		}
	}
	return i, BraceExpr{}, false
}

func matchTilde(s string, i int) (end int, tl Tilde) {
	j := i + 1
	switch {
	case j < len(s) && s[j] == '+':
		tl.Plus = true
		j++
	case j < len(s) && s[j] == '-':
		tl.Minus = true
		j++
	}
	start := j
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j > start {
		tl.HasN = true
		tl.N = atoiSimple(s[start:j])
		return j, tl
	}
	if !tl.Plus && !tl.Minus {
		start = j
		for j < len(s) && isIdentByte(s[j]) {
			j++
		}
		tl.User = s[start:j]
	}
	return j, tl
}

func atoiSimple(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
