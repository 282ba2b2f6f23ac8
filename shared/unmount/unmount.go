// Package unmount iteratively detaches every mount outside a preserved
// directory prefix, so that a rootfs pivot leaves nothing of the host
// filesystem reachable except what was explicitly preserved.
package unmount

import (
	"golang.org/x/sys/unix"

	"github.com/cflynn/nsbox/shared/mounttab"
)

// Stats reports how many detach attempts succeeded or failed in the last
// completed pass, for diagnostics.
type Stats struct {
	Unmounted int
	Failed    int
}

// All detaches every mount whose path does not share prefix (compared up to
// the shorter of the two lengths), repeating full passes over the mount
// table until a pass ends the loop: either every candidate succeeded,
// every candidate failed, or there were no candidates left. Repeated passes
// are necessary because detaching a mount can expose a new, previously
// hidden mount underneath it.
func All(prefix string) (Stats, error) {
	var last Stats
	for {
		entries, err := mounttab.ReadSelf()
		if err != nil {
			return last, err
		}

		var pass Stats
		for _, e := range entries {
			if sharesPrefix(prefix, e.Path) {
				continue
			}
			if err := unix.Unmount(e.Path, unix.MNT_DETACH); err != nil {
				pass.Failed++
			} else {
				pass.Unmounted++
			}
		}
		last = pass

		if pass.Unmounted == 0 || pass.Failed == 0 {
			return last, nil
		}
	}
}

// sharesPrefix compares prefix and path up to the shorter of the two
// lengths, matching the original tool's truncated strncmp comparison.
func sharesPrefix(prefix, path string) bool {
	n := len(prefix)
	if len(path) < n {
		n = len(path)
	}
	return prefix[:n] == path[:n]
}
