package interp

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rungo.sh/ion/value"
)

// Builtin is the dispatch contract every in-process builtin satisfies
// (spec.md §6, "builtin dispatch contract"): argv (including the builtin's
// own name at argv[0]) in, exit status out.
type Builtin func(sh *Shell, args []string) int

func defaultBuiltins() map[string]Builtin {
	m := map[string]Builtin{
		"cd":      builtinCd,
		"pwd":     builtinPwd,
		"exit":    builtinExit,
		"export":  builtinExport,
		"let":     builtinLet,
		"alias":   builtinAlias,
		"unalias": builtinUnalias,
		"exec":    builtinExec,
		"true":    builtinTrue,
		"false":   builtinFalse,
		"read":    builtinRead,
		"jobs":    builtinJobs,
		"fg":      builtinFg,
		"bg":      builtinBg,
		"disown":  builtinDisown,
		"set":     builtinSet,
		"dirs":    builtinDirs,
		"pushd":   builtinPushd,
		"popd":    builtinPopd,
	}
	m["type"] = builtinType(m)
	m["which"] = builtinType(m)
	m["help"] = builtinHelp(m)
	return m
}

func builtinNames(m map[string]Builtin) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func builtinCd(sh *Shell, args []string) int {
	dir := sh.oldpwd
	if len(args) > 1 {
		dir = args[1]
	} else if home, ok := sh.Home(""); ok {
		dir = home
	}
	if dir == "" {
		fmt.Fprintln(sh.Stderr, "ion: cd: no such directory")
		return 1
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(sh.pwd, dir)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(sh.Stderr, "ion: cd: %s: not a directory\n", dir)
		return 1
	}
	sh.oldpwd = sh.pwd
	sh.pwd = dir
	sh.scopes.SetGlobal("PWD", value.Str(sh.pwd))
	sh.scopes.SetGlobal("OLDPWD", value.Str(sh.oldpwd))
	return 0
}

func builtinPwd(sh *Shell, args []string) int {
	fmt.Fprintln(sh.Stdout, sh.pwd)
	return 0
}

func builtinExit(sh *Shell, args []string) int {
	status := sh.lastStatus
	if len(args) > 1 {
		status = atoiOr(args[1], status)
	}
	os.Exit(status)
	return status
}

func builtinExport(sh *Shell, args []string) int {
	act, err := splitAssignArgs(args[1:])
	if err != nil {
		fmt.Fprintf(sh.Stderr, "ion: assignment error: %v\n", err)
		return 1
	}
	for i, k := range act.keys {
		v := ""
		if i < len(act.vals) {
			v = act.vals[i]
		}
		sh.scopes.SetGlobal(k, value.Str(v))
		os.Setenv(k, v)
	}
	return 0
}

func builtinLet(sh *Shell, args []string) int {
	act, err := splitAssignArgs(args[1:])
	if err != nil {
		fmt.Fprintf(sh.Stderr, "ion: assignment error: %v\n", err)
		return 1
	}
	for i, k := range act.keys {
		v := ""
		if i < len(act.vals) {
			v = act.vals[i]
		}
		sh.scopes.Set(k, value.Str(v))
	}
	return 0
}

type assignment struct {
	keys []string
	vals []string
}

func splitAssignArgs(args []string) (assignment, error) {
	var act assignment
	for _, a := range args {
		if idx := strings.IndexByte(a, '='); idx >= 0 {
			act.keys = append(act.keys, a[:idx])
			act.vals = append(act.vals, a[idx+1:])
		} else {
			act.keys = append(act.keys, a)
			act.vals = append(act.vals, "")
		}
	}
	return act, nil
}

func builtinAlias(sh *Shell, args []string) int {
	if len(args) == 1 {
		names := make([]string, 0, len(sh.aliases))
		for name := range sh.aliases {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(sh.Stdout, "alias %s=%q\n", name, sh.aliases[name])
		}
		return 0
	}
	for _, a := range args[1:] {
		idx := strings.IndexByte(a, '=')
		if idx < 0 {
			if body, ok := sh.aliases[a]; ok {
				fmt.Fprintf(sh.Stdout, "alias %s=%q\n", a, body)
			}
			continue
		}
		sh.aliases[a[:idx]] = a[idx+1:]
	}
	return 0
}

func builtinUnalias(sh *Shell, args []string) int {
	for _, a := range args[1:] {
		delete(sh.aliases, a)
	}
	return 0
}

func builtinExec(sh *Shell, args []string) int {
	if len(args) < 2 {
		return 0
	}
	return sh.runExternalReplacing(args[1:])
}

func builtinTrue(sh *Shell, args []string) int  { return 0 }
func builtinFalse(sh *Shell, args []string) int { return 1 }

func builtinRead(sh *Shell, args []string) int {
	scanner := bufio.NewScanner(sh.Stdin)
	if !scanner.Scan() {
		return 1
	}
	line := scanner.Text()
	if len(args) < 2 {
		sh.scopes.Set("REPLY", value.Str(line))
		return 0
	}
	fields := strings.Fields(line)
	for i, name := range args[1:] {
		if i < len(fields) {
			sh.scopes.Set(name, value.Str(fields[i]))
		} else {
			sh.scopes.Set(name, value.Str(""))
		}
	}
	return 0
}

func builtinJobs(sh *Shell, args []string) int {
	for _, j := range sh.jobs.List() {
		fmt.Fprintf(sh.Stdout, "[%d] %d %s\t%s\n", j.Slot, j.PID, j.State, j.Command)
	}
	return 0
}

func builtinFg(sh *Shell, args []string) int {
	slot := -1
	if len(args) > 1 {
		slot = atoiOr(args[1], -1)
	}
	j, ok := sh.jobs.Resolve(slot)
	if !ok {
		fmt.Fprintln(sh.Stderr, "ion: fg: no such job")
		return 1
	}
	status, err := sh.bringForeground(j)
	if err != nil {
		fmt.Fprintf(sh.Stderr, "ion: fg: %v\n", err)
		return 1
	}
	return status
}

func builtinBg(sh *Shell, args []string) int {
	slot := -1
	if len(args) > 1 {
		slot = atoiOr(args[1], -1)
	}
	j, ok := sh.jobs.Resolve(slot)
	if !ok {
		fmt.Fprintln(sh.Stderr, "ion: bg: no such job")
		return 1
	}
	if err := sh.resumeBackground(j); err != nil {
		fmt.Fprintf(sh.Stderr, "ion: bg: %v\n", err)
		return 1
	}
	return 0
}

func builtinDisown(sh *Shell, args []string) int {
	hup := false
	rest := args[1:]
	if len(rest) > 0 && rest[0] == "-h" {
		hup = true
		rest = rest[1:]
	}
	slot := -1
	if len(rest) > 0 {
		slot = atoiOr(rest[0], -1)
	}
	j, ok := sh.jobs.Resolve(slot)
	if !ok {
		fmt.Fprintln(sh.Stderr, "ion: disown: no such job")
		return 1
	}
	sh.jobs.Disown(j.Slot, hup)
	return 0
}

func builtinSet(sh *Shell, args []string) int {
	for _, a := range args[1:] {
		switch a {
		case "-e":
			sh.errExit = true
		case "+e":
			sh.errExit = false
		case "-x":
			sh.xtrace = true
		case "+x":
			sh.xtrace = false
		}
	}
	return 0
}

func builtinDirs(sh *Shell, args []string) int {
	fmt.Fprintln(sh.Stdout, strings.Join(append(append([]string{}, sh.dirStack...), sh.pwd), " "))
	return 0
}

func builtinPushd(sh *Shell, args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(sh.Stderr, "ion: pushd: no directory given")
		return 1
	}
	dir := args[1]
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(sh.pwd, dir)
	}
	sh.dirStack = append(sh.dirStack, sh.pwd)
	sh.oldpwd = sh.pwd
	sh.pwd = dir
	sh.scopes.SetGlobal("PWD", value.Str(sh.pwd))
	return 0
}

func builtinPopd(sh *Shell, args []string) int {
	if len(sh.dirStack) == 0 {
		fmt.Fprintln(sh.Stderr, "ion: popd: directory stack empty")
		return 1
	}
	last := sh.dirStack[len(sh.dirStack)-1]
	sh.dirStack = sh.dirStack[:len(sh.dirStack)-1]
	sh.oldpwd = sh.pwd
	sh.pwd = last
	sh.scopes.SetGlobal("PWD", value.Str(sh.pwd))
	return 0
}

func builtinType(table map[string]Builtin) Builtin {
	return func(sh *Shell, args []string) int {
		if len(args) < 2 {
			for _, name := range builtinNames(table) {
				fmt.Fprintln(sh.Stdout, name)
			}
			return 0
		}
		status := 0
		for _, name := range args[1:] {
			if _, ok := table[name]; ok {
				fmt.Fprintf(sh.Stdout, "%s is a builtin\n", name)
				continue
			}
			if _, ok := sh.functions[name]; ok {
				fmt.Fprintf(sh.Stdout, "%s is a function\n", name)
				continue
			}
			if path, ok := lookPath(name); ok {
				fmt.Fprintf(sh.Stdout, "%s is %s\n", name, path)
				continue
			}
			fmt.Fprintf(sh.Stderr, "ion: type: %s: not found\n", name)
			status = 1
		}
		return status
	}
}

func builtinHelp(table map[string]Builtin) Builtin {
	return func(sh *Shell, args []string) int {
		fmt.Fprintln(sh.Stdout, "builtins:", strings.Join(builtinNames(table), " "))
		return 0
	}
}

func atoiOr(s string, def int) int {
	n := 0
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if s == "" {
		return def
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		n = -n
	}
	return n
}
