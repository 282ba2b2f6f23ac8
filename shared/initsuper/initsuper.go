// Package initsuper implements the in-namespace init supervisor: the
// process that becomes PID 1 of the container's new PID namespace, reaps
// every child (including re-parented daemons), relays the tracked program's
// exit status, and eventually drains and exits (spec §4.7).
package initsuper

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/cflynn/nsbox/shared/pidscan"
)

// ExitCode translates a wait(2) status into the relayed exit code: the
// program's own exit status, 128+signal for a signal death, or 255 for
// anything else (spec §3).
func ExitCode(ws unix.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	default:
		return 255
	}
}

// CodeFromExecErr translates the error returned by an (*exec.Cmd).Run or
// .Wait into the exit code nsbox/nsu relay to their own caller: the child's
// own status via ExitCode, or 127 if it never produced one (e.g. it could
// not be started at all). os/exec reports the wait(2) status as a
// syscall.WaitStatus, a distinct type from golang.org/x/sys/unix.WaitStatus
// with the same underlying representation, hence the explicit conversion.
func CodeFromExecErr(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 127
	}
	ws, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		return 127
	}
	return ExitCode(unix.WaitStatus(ws))
}

// Forever means Config.Timeout never expires the drain loop.
const Forever = -1

// Config configures one run of the supervisor.
type Config struct {
	// ProgramPID is the pid of the tracked program; its exit status is the
	// one relayed over ExitPipe.
	ProgramPID int
	// PidfilePath is removed once the supervisor has finished draining.
	PidfilePath string
	// Timeout is, in seconds, how long the supervisor keeps checking for
	// stragglers after reaping ProgramPID with no other children left; -1
	// (Forever) means it never gives up.
	Timeout int
	// ExitPipe is the write end of the pipe the outer launcher reads from
	// to learn the program's exit code.
	ExitPipe *os.File
}

// Run executes the Running/Draining part of the state machine of spec §4.7;
// the Spawn step (starting the program) is done by the caller. It
// blocks until the supervisor itself decides to exit (full drain or
// timeout), which may be long after ProgramPID has already been reaped and
// its exit code relayed.
func Run(cfg Config) {
	prog := cfg.ProgramPID
	elapsed := 0

	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, 0, nil)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err != unix.ECHILD {
				return
			}

			if cfg.Timeout == Forever {
				time.Sleep(30 * time.Second)
				continue
			}

			more, scanErr := pidscan.AnyOtherThanInit()
			if scanErr == nil && more {
				elapsed = 0
				time.Sleep(3 * time.Second)
				continue
			}

			elapsed++
			if elapsed <= cfg.Timeout {
				time.Sleep(1 * time.Second)
				continue
			}

			_ = os.Remove(cfg.PidfilePath)
			return
		}

		if pid == prog {
			writeExitByte(cfg.ExitPipe, ExitCode(ws))
			prog = -1
		}
	}
}

func writeExitByte(pipe *os.File, code int) {
	b := []byte{byte(code)}
	for {
		_, err := pipe.Write(b)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return
	}
}
