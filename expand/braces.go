package expand

import (
	"strconv"
	"strings"

	"rungo.sh/ion/syntax"
)

// ExpandBrace returns the literal strings a BraceExpr produces: the
// literal-list form's comma-separated alternatives (each itself expanded
// as a Word), or the numeric range form's zero-padded sequence (spec.md
// §4.3, "Brace ... Cartesian-product expansion with zero-padded numeric
// ranges").
func ExpandBrace(b syntax.BraceExpr, expandWord func(syntax.Word) ([]string, error)) ([]string, error) {
	if b.IsRange {
		return expandRange(b)
	}
	var out []string
	for _, alt := range b.Alternatives {
		parts, err := expandWord(alt)
		if err != nil {
			return nil, err
		}
		out = append(out, parts...)
	}
	return out, nil
}

func expandRange(b syntax.BraceExpr) ([]string, error) {
	lo, hi, step, width, err := parseRangeBounds(b)
	if err != nil {
		return nil, err
	}
	var out []string
	if step == 0 {
		step = 1
	}
	if lo <= hi {
		if step < 0 {
			step = -step
		}
		for v := lo; v <= hi; v += step {
			out = append(out, formatRangeVal(v, width))
		}
	} else {
		if step > 0 {
			step = -step
		}
		for v := lo; v >= hi; v += step {
			out = append(out, formatRangeVal(v, width))
		}
	}
	return out, nil
}

func parseRangeBounds(b syntax.BraceExpr) (lo, hi, step int, width int, err error) {
	loW, hiW := strings.TrimSpace(b.Lo), strings.TrimSpace(b.Hi)
	width = rangeWidth(loW, hiW)
	lo, err = strconv.Atoi(loW)
	if err != nil {
		return 0, 0, 0, 0, errf("invalid brace range bound %q", loW)
	}
	hi, err = strconv.Atoi(hiW)
	if err != nil {
		return 0, 0, 0, 0, errf("invalid brace range bound %q", hiW)
	}
	if b.Step != "" {
		step, err = strconv.Atoi(strings.TrimSpace(b.Step))
		if err != nil {
			return 0, 0, 0, 0, errf("invalid brace range step %q", b.Step)
		}
	}
	return lo, hi, step, width, nil
}

// rangeWidth reports the zero-pad width implied by a leading-zero bound
// (e.g. {01..10} pads every value to width 2).
func rangeWidth(lo, hi string) int {
	w := 0
	for _, s := range []string{lo, hi} {
		s = strings.TrimPrefix(s, "-")
		if len(s) > 1 && s[0] == '0' && len(s) > w {
			w = len(s)
		}
	}
	return w
}

func formatRangeVal(v, width int) string {
	s := strconv.Itoa(v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for len(s) < width {
		s = "0" + s
	}
	if neg {
		s = "-" + s
	}
	return s
}
