// Package mounttab reads and parses /proc/self/mounts, including the octal
// escaping the kernel applies to whitespace and backslashes in mount paths.
package mounttab

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
)

// growIncrement is the chunk size the read buffer grows by whenever free
// capacity drops below readThreshold.
const (
	growIncrement = 4096
	readThreshold = 2048
)

// Entry is one parsed line of /proc/self/mounts; only the mount path is
// needed by the rest of the system, so that is all this type keeps.
type Entry struct {
	Path string
}

// ReadSelf reads /proc/self/mounts in full, retrying on EINTR, and returns
// the unescaped mount path of every line.
func ReadSelf() ([]Entry, error) {
	f, err := os.Open("/proc/self/mounts")
	if err != nil {
		return nil, fmt.Errorf("mounttab: open: %w", err)
	}
	defer f.Close()

	raw, err := readAll(f)
	if err != nil {
		return nil, err
	}

	return parse(raw), nil
}

func readAll(f *os.File) ([]byte, error) {
	buf := make([]byte, growIncrement)
	n := 0
	for {
		if len(buf)-n < readThreshold {
			grown := make([]byte, len(buf)+growIncrement)
			copy(grown, buf[:n])
			buf = grown
		}

		r, err := f.Read(buf[n:])
		if err != nil {
			if isEINTR(err) {
				continue
			}
			// EOF (or any other read error) ends the read.
			break
		}
		if r <= 0 {
			break
		}
		n += r
	}
	return buf[:n], nil
}

func parse(raw []byte) []Entry {
	lines := strings.Split(string(raw), "\n")
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 3)
		if len(fields) < 2 {
			continue
		}
		entries = append(entries, Entry{Path: Unescape(fields[1])})
	}
	return entries
}

// Unescape reverses the kernel's octal escaping of whitespace and backslash
// characters in a single mount-table field: any "\" is followed by exactly
// three octal digits forming the escaped byte's value.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) {
			d1 := s[i+1] - '0'
			d2 := s[i+2] - '0'
			d3 := s[i+3] - '0'
			b.WriteByte(d1<<6 | d2<<3 | d3)
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Escape applies the inverse transform of Unescape: every space, tab,
// newline and backslash is rewritten as a three-digit octal escape, the form
// the kernel itself uses when writing /proc/self/mounts.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case ' ', '\t', '\n', '\\':
			fmt.Fprintf(&b, `\%03o`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isEINTR(err error) bool {
	return errors.Is(err, syscall.EINTR)
}
