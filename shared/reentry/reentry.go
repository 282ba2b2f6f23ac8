// Package reentry implements joining an already-running container: reading
// and validating its pidfile, then setns-ing into its namespaces (spec §4.6).
package reentry

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// MaxBytes bounds a single pidfile read; a file that fills the buffer
// without a short read is rejected as invalid (spec §4.6, §8 boundary:
// "Pidfile longer than 15 bytes is treated as invalid").
const MaxBytes = 16

// ReadPid reads and parses a pidfile. ok is false only if the file does not
// exist. A file that exists but doesn't decode to a positive pid is
// reported as ok == true, pid == 0 — the caller should then unlink it and
// fall through to a fresh launch, per spec §4.6/§7.
func ReadPid(path string) (pid int, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	defer f.Close()

	buf := make([]byte, MaxBytes)
	total := 0
	for total < MaxBytes {
		n, rerr := f.Read(buf[total:])
		if rerr != nil {
			if errors.Is(rerr, syscall.EINTR) {
				continue
			}
			break
		}
		if n <= 0 {
			break
		}
		total += n
	}
	if total == MaxBytes {
		return 0, true, nil
	}

	p, perr := strconv.Atoi(string(buf[:total]))
	if perr != nil || p <= 0 {
		return 0, true, nil
	}
	return p, true, nil
}

// Live reports whether pid is a live container PID 1: its /proc/<pid>/cwd
// must resolve to exactly "/".
func Live(pid int) bool {
	target, err := os.Readlink(fmt.Sprintf("/proc/%d/cwd", pid))
	return err == nil && target == "/"
}

// nsOrder is the mandatory setns ordering: user, uts, pid, mnt (spec §4.6).
var nsOrder = []string{"user", "uts", "pid", "mnt"}

// Enter setns's into pid's user/uts/pid/mnt namespaces in order, skipping
// the user namespace when skipUser is true (the invoker is already root).
// Each namespace fd is opened only long enough to setns and closed
// immediately.
//
// setns(2) into a mount namespace fails (EINVAL) if the calling thread's
// filesystem info (root/cwd/umask) is still shared with any other thread in
// the process via CLONE_FS, which is how Go creates every OS thread by
// default. unix.Unshare(CLONE_FS) below gives this thread its own private
// copy before the mnt setns, which is sufficient regardless of how many
// other OS threads the process has.
//
// setns(2) into a user namespace additionally requires the whole process to
// have exactly one OS thread, a requirement LockOSThread cannot satisfy: it
// only pins this goroutine to its own thread, it does not stop the Go
// runtime's other OS threads (sysmon and friends, already running before
// main()) from existing. There is no pure-Go way around this short of a cgo
// constructor that calls setns before the runtime starts, which nothing in
// this tree does; callers MUST still invoke Enter only from a dedicated,
// freshly re-exec'd process (see nsbox/nsenter.go) to come as close as
// possible, but skipUser is the only path guaranteed to work — re-entering
// an existing user namespace as a non-root invoker remains best-effort.
func Enter(pid int, skipUser bool) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for _, kind := range nsOrder {
		if kind == "user" && skipUser {
			continue
		}

		if kind == "mnt" {
			if err := unix.Unshare(unix.CLONE_FS); err != nil {
				return fmt.Errorf("reentry: unshare CLONE_FS: %w", err)
			}
		}

		path := fmt.Sprintf("/proc/%d/ns/%s", pid, kind)
		fd, err := unix.Open(path, unix.O_RDONLY, 0)
		if err != nil {
			return fmt.Errorf("reentry: open %s: %w", path, err)
		}

		err = unix.Setns(fd, 0)
		unix.Close(fd)
		if err != nil {
			return fmt.Errorf("reentry: setns %s: %w", path, err)
		}
	}

	return nil
}
