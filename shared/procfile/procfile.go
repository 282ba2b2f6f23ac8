// Package procfile writes short, formatted strings to single-shot procfs-like
// files such as the container's .pid1 pidfile.
//
// Writes of this kind must land in a single write(2) call with nothing
// split across calls, so this package never retries a partial write and
// instead treats it as fatal.
package procfile

import (
	"fmt"
	"os"
)

// bufSize is the fixed formatting buffer used for every write. A formatted
// message that would not fit is a programming error, not a runtime one.
const bufSize = 80

// WriteNewFile opens path for writing, creating it if necessary, and writes
// the formatted message in one call. Used for the container's .pid1 file.
func WriteNewFile(path string, format string, a ...any) error {
	buf := fmt.Sprintf(format, a...)
	if len(buf) >= bufSize {
		return fmt.Errorf("procfile: formatted message for %s exceeds %d bytes", path, bufSize)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("procfile: open %s: %w", path, err)
	}
	defer f.Close()

	n, err := f.Write([]byte(buf))
	if err != nil {
		return fmt.Errorf("procfile: write %s: %w", path, err)
	}
	if n != len(buf) {
		return fmt.Errorf("procfile: short write to %s (%d of %d bytes)", path, n, len(buf))
	}

	return nil
}
