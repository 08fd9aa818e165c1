package expand

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rungo.sh/ion/pattern"
)

// Glob expands a literal word containing '*'/'?'/'[' against the
// filesystem, returning sorted matches. A pattern with no matches expands
// to itself as a literal token rather than vanishing (spec.md §4.3,
// "Globbing ... sorted matches, literal token on no-match").
func Glob(pat string) []string {
	if !strings.ContainsAny(pat, "*?[") {
		return []string{pat}
	}
	dir, base := filepath.Split(pat)
	if dir == "" {
		dir = "."
	}
	if strings.ContainsAny(dir, "*?[") {
		// Nested wildcard directories: fall back to filepath.Glob, which
		// walks one path component at a time.
		matches, err := filepath.Glob(pat)
		if err != nil || len(matches) == 0 {
			return []string{pat}
		}
		sort.Strings(matches)
		return matches
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return []string{pat}
	}
	re, err := pattern.Compile(base)
	if err != nil {
		return []string{pat}
	}
	var out []string
	hidden := strings.HasPrefix(base, ".")
	for _, e := range entries {
		name := e.Name()
		if !hidden && strings.HasPrefix(name, ".") {
			continue
		}
		if re.MatchString(name) {
			if dir == "." && !strings.HasPrefix(pat, "./") {
				out = append(out, name)
			} else {
				out = append(out, filepath.Join(dir, name))
			}
		}
	}
	if len(out) == 0 {
		return []string{pat}
	}
	sort.Strings(out)
	return out
}
