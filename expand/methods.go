package expand

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"rungo.sh/ion/pattern"
	"rungo.sh/ion/value"
)

// StringMethod evaluates a `$method(var, pattern)` expansion (spec.md
// §4.3, "string methods").
func StringMethod(name, s, arg string, hasArg bool) (string, error) {
	switch name {
	case "len":
		return strconv.Itoa(utf8.RuneCountInString(s)), nil
	case "len_bytes":
		return strconv.Itoa(len(s)), nil
	case "starts_with":
		return boolStr(strings.HasPrefix(s, arg)), nil
	case "ends_with":
		return boolStr(strings.HasSuffix(s, arg)), nil
	case "contains":
		return boolStr(strings.Contains(s, arg)), nil
	case "find":
		if hasArg {
			if body, err := pattern.Translate(arg, true); err == nil {
				if re, err := regexp.Compile(body); err == nil {
					if loc := re.FindStringIndex(s); loc != nil {
						return strconv.Itoa(loc[0]), nil
					}
					return "-1", nil
				}
			}
		}
		return strconv.Itoa(strings.Index(s, arg)), nil
	case "replace":
		old, new, ok := splitPair(arg)
		if !ok {
			return s, nil
		}
		return strings.Replace(s, old, new, 1), nil
	case "replacen":
		old, new, ok := splitPair(arg)
		if !ok {
			return s, nil
		}
		return strings.ReplaceAll(s, old, new), nil
	case "join":
		return s, nil // join operates on arrays; see ArrayMethod
	case "repeat":
		n, _ := strconv.Atoi(strings.TrimSpace(arg))
		if n < 0 {
			n = 0
		}
		return strings.Repeat(s, n), nil
	case "reverse":
		return reverseRunes(s), nil
	case "to_lowercase":
		return strings.ToLower(s), nil
	case "to_uppercase":
		return strings.ToUpper(s), nil
	case "basename":
		return filepath.Base(s), nil
	case "extension":
		ext := filepath.Ext(s)
		return strings.TrimPrefix(ext, "."), nil
	case "filename":
		base := filepath.Base(s)
		return strings.TrimSuffix(base, filepath.Ext(base)), nil
	case "parent":
		return filepath.Dir(s), nil
	case "to_string":
		return s, nil
	}
	return "", errf("unknown string method %q", name)
}

// ArrayMethod evaluates an `@method(var, pattern)` expansion, returning
// the resulting element sequence (spec.md §4.3, "array methods").
func ArrayMethod(name string, elems []string, arg string, hasArg bool) ([]string, error) {
	switch name {
	case "split":
		if len(elems) == 0 {
			return nil, nil
		}
		if !hasArg {
			return strings.Fields(elems[0]), nil
		}
		return strings.Split(elems[0], arg), nil
	case "split_at":
		if len(elems) == 0 {
			return nil, nil
		}
		n, _ := strconv.Atoi(strings.TrimSpace(arg))
		s := elems[0]
		if n < 0 || n > len(s) {
			return []string{s, ""}, nil
		}
		return []string{s[:n], s[n:]}, nil
	case "lines":
		if len(elems) == 0 {
			return nil, nil
		}
		return strings.Split(strings.TrimSuffix(elems[0], "\n"), "\n"), nil
	case "chars":
		if len(elems) == 0 {
			return nil, nil
		}
		var out []string
		for _, r := range elems[0] {
			out = append(out, string(r))
		}
		return out, nil
	case "bytes", "graphemes":
		if len(elems) == 0 {
			return nil, nil
		}
		s := elems[0]
		out := make([]string, 0, len(s))
		for i := 0; i < len(s); i++ {
			out = append(out, string(s[i]))
		}
		return out, nil
	case "reverse":
		out := make([]string, len(elems))
		for i, e := range elems {
			out[len(elems)-1-i] = e
		}
		return out, nil
	case "keys":
		out := make([]string, len(elems))
		for i := range elems {
			out[i] = strconv.Itoa(i)
		}
		return out, nil
	case "values":
		return elems, nil
	case "subst":
		old, new, ok := splitPair(arg)
		if !ok {
			return elems, nil
		}
		out := make([]string, len(elems))
		for i, e := range elems {
			out[i] = strings.ReplaceAll(e, old, new)
		}
		return out, nil
	case "join":
		sep := " "
		if hasArg {
			sep = arg
		}
		return []string{strings.Join(elems, sep)}, nil
	}
	return nil, errf("unknown array method %q", name)
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func splitPair(arg string) (a, b string, ok bool) {
	idx := strings.Index(arg, ",")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(arg[:idx]), strings.TrimSpace(arg[idx+1:]), true
}

func reverseRunes(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// BuildArrayValue wraps a method's resulting elements into a value.Value.
func BuildArrayValue(elems []string) value.Value {
	return value.ArrStrings(elems...)
}
