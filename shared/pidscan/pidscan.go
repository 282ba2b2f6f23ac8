// Package pidscan enumerates the numeric entries of /proc, i.e. the set of
// live PIDs, without interpreting their contents.
package pidscan

import (
	"os"
	"strconv"
)

// Scanner holds a directory handle across successive Next calls, closing it
// once exhausted. The zero value is ready to use.
type Scanner struct {
	dir     *os.File
	started bool
}

// Next returns the next numeric /proc entry as a PID, or ok=false once the
// directory is exhausted (the handle is closed automatically at that point).
func (s *Scanner) Next() (pid int, ok bool, err error) {
	if !s.started {
		s.started = true
		s.dir, err = os.Open("/proc")
		if err != nil {
			return 0, false, err
		}
	}
	if s.dir == nil {
		return 0, false, nil
	}

	for {
		names, err := s.dir.Readdirnames(1)
		if err != nil {
			s.Close()
			return 0, false, nil
		}
		name := names[0]

		p, perr := strconv.ParseInt(name, 10, 64)
		if perr != nil || p <= 0 {
			continue
		}
		return int(p), true, nil
	}
}

// Close releases the directory handle if still open. Safe to call multiple
// times and safe to call even if Next was never called.
func (s *Scanner) Close() {
	if s.dir != nil {
		s.dir.Close()
		s.dir = nil
	}
}

// AnyOtherThanInit reports whether /proc currently contains a PID greater
// than 1 — used by the init supervisor's draining state to decide whether
// the namespace is genuinely empty.
func AnyOtherThanInit() (bool, error) {
	var s Scanner
	defer s.Close()
	for {
		pid, ok, err := s.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if pid > 1 {
			return true, nil
		}
	}
}
