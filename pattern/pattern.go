// Package pattern compiles glob/case pattern expressions ('*', '?', '['
// char classes) into regular expressions, per the pattern-escape rules
// (spec.md §4.3, "Globbing" and "case/match patterns"). Adapted from the
// teacher's own pattern-translation logic, generalised to the escape set
// this spec uses (backslash escapes exactly '*', '?', '[', '\\' — every
// other byte is literal, so quoting rules for arbitrary strings used as
// literal match targets only need to escape those four runes).
package pattern

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// IsMeta reports whether r is a pattern metacharacter.
func IsMeta(r rune) bool {
	return r == '*' || r == '?' || r == '[' || r == '\\'
}

func hasMeta(s string) bool {
	for _, r := range s {
		if IsMeta(r) {
			return true
		}
	}
	return false
}

func charClass(s string) (string, error) {
	if !strings.HasPrefix(s, "[[:") {
		return "", nil
	}
	name := s[3:]
	end := strings.Index(name, ":]]")
	if end < 0 {
		return "", fmt.Errorf("pattern: [[: not matched with closing :]]")
	}
	name = name[:end]
	switch name {
	case "alnum", "alpha", "ascii", "blank", "cntrl", "digit", "graph",
		"lower", "print", "punct", "space", "upper", "word", "xdigit":
	default:
		return "", fmt.Errorf("pattern: invalid character class %q", name)
	}
	return s[:len(name)+6], nil
}

// Translate turns a shell-style glob/case pattern into a regular
// expression body (unanchored). greedy controls whether '*' compiles to a
// greedy or lazy match; every caller in this module, the `find` string
// method included, asks for a greedy match.
func Translate(expr string, greedy bool) (string, error) {
	if !hasMeta(expr) {
		return regexp.QuoteMeta(expr), nil
	}
	var buf bytes.Buffer
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch c {
		case '*':
			buf.WriteString(".*")
			if !greedy {
				buf.WriteByte('?')
			}
		case '?':
			buf.WriteByte('.')
		case '\\':
			if i++; i >= len(expr) {
				return "", fmt.Errorf("pattern: trailing backslash")
			}
			buf.WriteString(regexp.QuoteMeta(string(expr[i])))
		case '[':
			name, err := charClass(expr[i:])
			if err != nil {
				return "", err
			}
			if name != "" {
				buf.WriteString(name)
				i += len(name) - 1
				break
			}
			buf.WriteByte(c)
			if i++; i >= len(expr) {
				return "", fmt.Errorf("pattern: [ not matched with closing ]")
			}
			c = expr[i]
			if c == '!' {
				c = '^'
			}
			buf.WriteByte(c)
			for {
				if i++; i >= len(expr) {
					return "", fmt.Errorf("pattern: [ not matched with closing ]")
				}
				c = expr[i]
				buf.WriteByte(c)
				if c == ']' {
					break
				}
			}
		default:
			buf.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return buf.String(), nil
}

// Compile builds an anchored, case-sensitive *regexp.Regexp matching
// whole strings against expr.
func Compile(expr string) (*regexp.Regexp, error) {
	body, err := Translate(expr, true)
	if err != nil {
		return nil, err
	}
	return regexp.Compile("^" + body + "$")
}

// Match reports whether expr (as a glob/case pattern) matches s entirely.
func Match(expr, s string) (bool, error) {
	re, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}

// QuoteMeta escapes pattern metacharacters in s so it matches only
// itself, for building a literal match target out of an expanded value.
func QuoteMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		if IsMeta(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
