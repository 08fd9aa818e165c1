package expand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"rungo.sh/ion/syntax"
	"rungo.sh/ion/value"
)

// namedColors maps the c::/color:: namespace's recognised names onto
// fatih/color's SGR attribute codes, so prompt strings can embed escape
// sequences (`$c::red`) without the shell forking out to tput.
var namedColors = map[string]color.Attribute{
	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
	"bold":    color.Bold,
	"reset":   color.Reset,
	"default": color.Reset,
}

// ResolveNamespace handles the c::/color::, x::/hex::, and env:: lookup
// prefixes (spec.md §4.3, "Namespace lookups"). ok is false for any other
// name, super:: and global:: included, in which case the caller should
// fall back to ordinary scope lookup.
func ResolveNamespace(env Environ, name string) (result string, ok bool, err error) {
	switch {
	case strings.HasPrefix(name, "c::"):
		return resolveColor(name[len("c::"):])
	case strings.HasPrefix(name, "color::"):
		return resolveColor(name[len("color::"):])
	case strings.HasPrefix(name, "x::"):
		return resolveHex(name[len("x::"):])
	case strings.HasPrefix(name, "hex::"):
		return resolveHex(name[len("hex::"):])
	case strings.HasPrefix(name, "env::"):
		v, set := env.Env(name[len("env::"):])
		return v, set, nil
	}
	return "", false, nil
}

func resolveColor(spec string) (string, bool, error) {
	if color.NoColor {
		return "", true, nil
	}
	attr, ok := namedColors[spec]
	if !ok {
		return "", true, errf("unknown color %q", spec)
	}
	return fmt.Sprintf("\x1b[%dm", attr), true, nil
}

// resolveHex decodes a two-hex-digit byte to the single Unicode character
// it names (spec.md §4.3, "x::/hex:: -> a single Unicode character from
// two-hex"), e.g. `$x::41` is `A`.
func resolveHex(spec string) (string, bool, error) {
	spec = strings.TrimPrefix(spec, "#")
	if len(spec) != 2 {
		return "", true, errf("invalid hex byte %q", spec)
	}
	n, err := strconv.ParseInt(spec, 16, 32)
	if err != nil {
		return "", true, errf("invalid hex byte %q", spec)
	}
	return string(rune(n)), true, nil
}

// IsSuperOrGlobal reports the super::/global:: scope-lookup prefix on
// name, stripping it, so the scope stack can decide which frame to start
// searching from (spec.md §4, "Scope-stack model").
func IsSuperOrGlobal(name string) (bare string, super, global bool) {
	switch {
	case strings.HasPrefix(name, "super::"):
		return name[len("super::"):], true, false
	case strings.HasPrefix(name, "global::"):
		return name[len("global::"):], false, true
	}
	return name, false, false
}

// ApplySelector narrows v per sel (spec.md §4.3, "Selector").
func ApplySelector(v value.Value, sel *syntax.Selector, env Environ) (value.Value, error) {
	if sel == nil {
		return v, nil
	}
	switch sel.Kind {
	case syntax.SelAll:
		return v, nil
	case syntax.SelIndex:
		return selectIndex(v, sel.Index)
	case syntax.SelRange:
		lo, hi, err := resolveRange(sel, env)
		if err != nil {
			return value.Value{}, err
		}
		return selectRange(v, lo, hi, sel.HasLo, sel.HasHi)
	case syntax.SelKey:
		key, _ := sel.Key.Lit()
		return selectKey(v, key)
	}
	return v, nil
}

func resolveRange(sel *syntax.Selector, env Environ) (lo, hi int, err error) {
	if sel.HasLo {
		s, _ := sel.Lo.Lit()
		lo, _ = strconv.Atoi(strings.TrimSpace(s))
	}
	if sel.HasHi {
		s, _ := sel.Hi.Lit()
		hi, _ = strconv.Atoi(strings.TrimSpace(s))
		if sel.Inclusive {
			hi++
		}
	}
	return lo, hi, nil
}

func selectIndex(v value.Value, idx int) (value.Value, error) {
	elems := v.Elements()
	n := len(elems)
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return value.Value{}, errf("index %d out of range (len %d)", idx, n)
	}
	return value.Str(elems[idx]), nil
}

func selectRange(v value.Value, lo, hi int, hasLo, hasHi bool) (value.Value, error) {
	elems := v.Elements()
	n := len(elems)
	if !hasLo {
		lo = 0
	}
	if !hasHi {
		hi = n
	}
	if lo < 0 {
		lo += n
	}
	if hi < 0 {
		hi += n
	}
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if lo > hi {
		lo = hi
	}
	return value.ArrStrings(elems[lo:hi]...), nil
}

func selectKey(v value.Value, key string) (value.Value, error) {
	switch v.Kind {
	case value.KindHashMap:
		if e, ok := v.HashMap[key]; ok {
			return e, nil
		}
	case value.KindBTreeMap:
		if v.BTreeMap != nil {
			if e, ok := v.BTreeMap.Get(key); ok {
				return e, nil
			}
		}
	}
	return value.Value{}, errf("no such key %q", key)
}
