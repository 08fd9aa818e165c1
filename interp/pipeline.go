package interp

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"rungo.sh/ion/syntax"
	"rungo.sh/ion/value"
)

// startedPipeline is the result of forking every external stage of a
// pipeline: the started commands (left to right, external stages only),
// their shared process-group id, and the exit status already produced by
// any builtin stage that ran in-process instead of forking (spec.md §4.5).
type startedPipeline struct {
	cmds   []*exec.Cmd
	pgid   int
	status int // valid only when len(cmds) == 0 (an all-builtin pipeline)
}

// startPipeline builds the fd plan across pipe boundaries and forks every
// external stage left to right, with the first child's pid becoming the
// pipeline's process group and every later child joining it (spec.md
// §4.5, "left-to-right fork with first child's pid as process-group id").
// It does not wait for anything; callers choose foreground or background
// completion.
func (sh *Shell) startPipeline(pl *syntax.Pipeline, items [][]string, redirects []resolvedRedirects) (startedPipeline, error) {
	n := len(items)
	if n == 0 {
		return startedPipeline{}, nil
	}

	cmds := make([]*exec.Cmd, n)
	pipes := make([]*os.File, 0, (n-1)*2)
	lastBuiltinStatus := 0

	var prevRead *os.File
	for i, argv := range items {
		if len(argv) == 0 {
			return startedPipeline{}, executionError(127, strFmtErr("empty command"))
		}
		name, ok := lookPath(argv[0])
		if !ok {
			if b, isBuiltin := sh.builtins[argv[0]]; isBuiltin {
				// A builtin mid-pipeline runs in-process on the shell's
				// own streams: it is not forked, it is not connected to
				// the neighbouring pipes, and its redirects are not
				// applied.
				lastBuiltinStatus = sh.runBuiltinStage(b, argv, redirects[i])
				continue
			}
			return startedPipeline{}, executionError(127, strFmtErr("%s: command not found", argv[0]))
		}

		cmd := exec.Command(name, argv[1:]...)
		cmd.Args[0] = argv[0]
		cmd.Dir = sh.pwd
		cmd.Env = sh.environSlice()
		cmd.Stdin, cmd.Stdout, cmd.Stderr = sh.Stdin, sh.Stdout, sh.Stderr

		if prevRead != nil {
			cmd.Stdin = prevRead
		}
		if i < n-1 {
			r, w, err := os.Pipe()
			if err != nil {
				return startedPipeline{}, err
			}
			cmd.Stdout = w
			switch pl.Items[i].Job.From {
			case syntax.FromStderr:
				cmd.Stderr = w
			case syntax.FromBoth:
				cmd.Stdout, cmd.Stderr = w, w
			}
			pipes = append(pipes, r, w)
			prevRead = r
		}

		applyRedirects(cmd, redirects[i])

		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		cmds[i] = cmd
	}

	started := make([]*exec.Cmd, 0, n)
	pgid := 0
	for _, cmd := range cmds {
		if cmd == nil {
			continue
		}
		if pgid != 0 {
			cmd.SysProcAttr.Pgid = pgid
		}
		if err := cmd.Start(); err != nil {
			closeHandoffFDs(pipes, started)
			return startedPipeline{}, executionError(126, err)
		}
		if pgid == 0 {
			pgid = cmd.Process.Pid
		}
		started = append(started, cmd)
	}
	closeHandoffFDs(pipes, started)

	return startedPipeline{cmds: started, pgid: pgid, status: lastBuiltinStatus}, nil
}

// runPipeline runs a pipeline to completion in the foreground: it grants
// the started process group the controlling terminal for the duration of
// the wait and reclaims it on every exit path (spec.md §4.5 step 5, and
// testable property 5). The wait itself watches for WUNTRACED so a
// SIGTSTP (Ctrl-Z) is observed instead of hanging forever: a stop moves
// the pipeline into the job table as Stopped and returns control to the
// prompt (spec.md §8 scenario #10).
func (sh *Shell) runPipeline(pl *syntax.Pipeline, items [][]string, redirects []resolvedRedirects) (int, error) {
	sp, err := sh.startPipeline(pl, items, redirects)
	if err != nil {
		return statusFor(err), err
	}
	if len(sp.cmds) == 0 {
		return sp.status, nil
	}

	if sp.pgid != 0 && sh.foregroundCapable() {
		sh.grantForeground(sp.pgid)
		defer sh.reclaimForeground()
	}

	return sh.waitForegroundPipeline(items, sp)
}

// waitForegroundPipeline reaps every started child with a blocking,
// WUNTRACED-aware waitpid loop on the pipeline's process group, per
// spec.md §4.5 step 5 ("waitpid(-pgid, WUNTRACED...)" on the foreground
// path, mirroring bringForeground/watchBackground in signal_unix.go).
// Reaping order is not fixed (spec.md §5), but the returned status is
// always the last-forked command's, tracked by pid.
func (sh *Shell) waitForegroundPipeline(items [][]string, sp startedPipeline) (int, error) {
	pending := make(map[int]bool, len(sp.cmds))
	for _, cmd := range sp.cmds {
		pending[cmd.Process.Pid] = true
	}
	lastPID := sp.cmds[len(sp.cmds)-1].Process.Pid

	status := 0
	for len(pending) > 0 {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-sp.pgid, &ws, unix.WUNTRACED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return status, err
		}
		if !pending[pid] {
			continue
		}
		if ws.Stopped() {
			sh.stopForeground(items, sp)
			return 0, nil
		}
		delete(pending, pid)
		if pid == lastPID {
			switch {
			case ws.Signaled():
				status = 128 + int(ws.Signal())
			default:
				status = ws.ExitStatus()
			}
		}
	}
	return status, nil
}

// stopForeground demotes a just-stopped foreground pipeline into the job
// table as a Stopped background job, so `jobs`/`fg`/`bg` can observe and
// later resume it, and hands its remaining reaping off to the same
// watcher goroutine background pipelines use.
func (sh *Shell) stopForeground(items [][]string, sp startedPipeline) {
	cmdline := make([]string, 0, len(items))
	for _, argv := range items {
		cmdline = append(cmdline, strings.Join(argv, " "))
	}
	j := sh.jobs.Add(sp.pgid, strings.Join(cmdline, " | "))
	j.State = JobStopped
	fmt.Fprintf(sh.Stderr, "\n[%d]+  Stopped\t%s\n", j.Slot, j.Command)
	sh.watchBackground(j)
}

// startBackgroundPipeline forks a pipeline without waiting for it and
// without granting it the terminal (spec.md §4.5 step 6, "background
// mode"): the caller registers the job-table slot, then a dedicated
// watcher goroutine reaps it asynchronously so the prompt stays
// interactive (spec.md §5, "one OS thread per background pipeline").
func (sh *Shell) startBackgroundPipeline(pl *syntax.Pipeline, items [][]string, redirects []resolvedRedirects) (startedPipeline, error) {
	return sh.startPipeline(pl, items, redirects)
}

// closeHandoffFDs closes the parent's copies of every pipe fd it handed
// off to a child, so EOF propagates correctly down the pipeline.
func closeHandoffFDs(pipes []*os.File, started []*exec.Cmd) {
	for _, f := range pipes {
		f.Close()
	}
}

func (sh *Shell) environSlice() []string {
	var out []string
	sh.scopes.Each(func(name string, v value.Value) {
		out = append(out, name+"="+v.String())
	})
	return out
}

type resolvedRedirects struct {
	stdin  string
	hasIn  bool
	outs   []resolvedOutput
}

type resolvedOutput struct {
	file   string
	append bool
	from   syntax.PipeFrom
}

func applyRedirects(cmd *exec.Cmd, r resolvedRedirects) {
	if r.hasIn {
		if f, err := os.Open(r.stdin); err == nil {
			cmd.Stdin = f
		}
	}
	for _, o := range r.outs {
		flags := os.O_WRONLY | os.O_CREATE
		if o.append {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(o.file, flags, 0644)
		if err != nil {
			continue
		}
		switch o.from {
		case syntax.FromStderr:
			cmd.Stderr = f
		case syntax.FromBoth:
			cmd.Stdout, cmd.Stderr = f, f
		default:
			cmd.Stdout = f
		}
	}
}

func (sh *Shell) runBuiltinStage(b Builtin, argv []string, r resolvedRedirects) int {
	return b(sh, argv)
}

// lookPath resolves argv[0] against PATH, returning the absolute path and
// whether one was found (spec.md §7, 127 for "not found").
func lookPath(name string) (string, bool) {
	if strings.ContainsRune(name, '/') {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name, true
		}
		return "", false
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return path, true
}

func (sh *Shell) runExternalReplacing(argv []string) int {
	path, ok := lookPath(argv[0])
	if !ok {
		return 127
	}
	env := os.Environ()
	err := syscall.Exec(path, argv, env)
	if err != nil {
		return 126
	}
	return 0
}

// foregroundCapable reports whether this shell process has a controlling
// terminal it can hand off to a child process group.
func (sh *Shell) foregroundCapable() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func strFmtErr(format string, args ...any) error {
	return expansionError(format, args...)
}
