//go:build unix

package interp

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// foregroundState names the states {None, Grab(pid), Reply(status), Error}
// of a foreground-signal handoff. No code in this package reads or writes
// a value of this type: a foreground pipeline is waited on directly by
// waitForegroundPipeline.
type foregroundState int32

const (
	fgNone foregroundState = iota
	fgGrab
	fgReply
	fgError
)

var sigintSeen atomic.Bool

// installSignalHandlers wires the shell-process-level handler set (spec.md
// §5): SIGINT is flag-only (never kills the shell), SIGTSTP/SIGTTOU/SIGTTIN
// are ignored by the shell itself (only foreground children feel them),
// SIGCHLD is handled by each background watcher rather than the main
// process, and SIGHUP/SIGTERM broadcast to the job table before the shell
// exits.
func (sh *Shell) installSignalHandlers() {
	ch := make(chan os.Signal, 8)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTSTP, syscall.SIGTTOU,
		syscall.SIGTTIN, syscall.SIGHUP, syscall.SIGTERM)

	go func() {
		for s := range ch {
			switch s {
			case syscall.SIGINT:
				sigintSeen.Store(true)
			case syscall.SIGTSTP, syscall.SIGTTOU, syscall.SIGTTIN:
				// Swallowed: only a foreground child's process group
				// should stop on these.
			case syscall.SIGHUP, syscall.SIGTERM:
				sh.broadcastAndExit(s)
			}
		}
	}()
}

// broadcastAndExit implements the SIGHUP/SIGTERM handler: every
// surviving job (one not disowned with -h) is sent the same signal before
// the shell process exits.
func (sh *Shell) broadcastAndExit(sig os.Signal) {
	ss, _ := sig.(syscall.Signal)
	sh.jobs.EachSurviving(func(j *BackgroundJob) {
		unix.Kill(-j.PID, ss)
	})
	os.Exit(128 + int(ss))
}

// grantForeground gives pgid the controlling terminal, per tcsetpgrp
// (spec.md §4.5, "foreground tcsetpgrp/tcsetpgrp-back").
func (sh *Shell) grantForeground(pgid int) {
	unix.IoctlSetPointerInt(int(os.Stdin.Fd()), unix.TIOCSPGRP, pgid)
}

// reclaimForeground hands the terminal back to the shell's own process
// group once a foreground pipeline finishes.
func (sh *Shell) reclaimForeground() {
	self := os.Getpid()
	pgid, err := unix.IoctlGetInt(int(os.Stdin.Fd()), unix.TIOCGPGRP)
	if err == nil && pgid == self {
		return
	}
	unix.IoctlSetPointerInt(int(os.Stdin.Fd()), unix.TIOCSPGRP, self)
}

// bringForeground resumes a stopped/running background job as the
// foreground job: SIGCONT if stopped, grant it the terminal, wait for it.
func (sh *Shell) bringForeground(j *BackgroundJob) (int, error) {
	if j.State == JobStopped {
		unix.Kill(-j.PID, syscall.SIGCONT)
	}
	sh.grantForeground(j.PID)
	defer sh.reclaimForeground()

	var status int
	var wstatus unix.WaitStatus
	_, err := unix.Wait4(-j.PID, &wstatus, unix.WUNTRACED, nil)
	if err != nil {
		return 1, err
	}
	switch {
	case wstatus.Stopped():
		j.State = JobStopped
		return 0, nil
	case wstatus.Signaled():
		status = 128 + int(wstatus.Signal())
	default:
		status = wstatus.ExitStatus()
	}
	sh.jobs.MarkDone(j.Slot, status)
	return status, nil
}

// resumeBackground implements `bg`: SIGCONT without reclaiming the
// terminal.
func (sh *Shell) resumeBackground(j *BackgroundJob) error {
	if j.State != JobStopped {
		return nil
	}
	if err := unix.Kill(-j.PID, syscall.SIGCONT); err != nil {
		return err
	}
	j.State = JobRunning
	return nil
}

// watchBackground starts one goroutine per background pipeline doing a
// WNOHANG waitpid poll every 100ms. The goroutine runs under a
// sourcegraph/conc WaitGroup that is never waited on, so a panic inside the
// poll loop is recovered and then discarded.
func (sh *Shell) watchBackground(j *BackgroundJob) {
	var wg conc.WaitGroup
	wg.Go(func() {
		for {
			var wstatus unix.WaitStatus
			pid, err := unix.Wait4(-j.PID, &wstatus, unix.WNOHANG, nil)
			if err != nil || pid == 0 {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			if wstatus.Stopped() {
				j.State = JobStopped
				return
			}
			status := wstatus.ExitStatus()
			if wstatus.Signaled() {
				status = 128 + int(wstatus.Signal())
			}
			sh.jobs.MarkDone(j.Slot, status)
			return
		}
	})
}
