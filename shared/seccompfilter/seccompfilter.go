// Package seccompfilter installs the identity-neutralizing seccomp-bpf
// filter: every syscall is allowed except the identity-changing family,
// which is made to return 0 without taking effect (spec §4.10). Built on
// github.com/seccomp/libseccomp-golang, the same cgo wrapper used
// elsewhere in the pack for BPF filter construction.
package seccompfilter

import (
	"fmt"

	seccomp "github.com/seccomp/libseccomp-golang"
)

// blockedSyscalls is the identity-changing family: the chown family and the
// set*id/setgroups family, including their 32-bit legacy variants.
var blockedSyscalls = []string{
	"chown", "chown32",
	"fchown", "fchown32",
	"fchownat",
	"lchown", "lchown32",
	"setfsgid", "setfsgid32",
	"setfsuid", "setfsuid32",
	"setgid", "setgid32",
	"setgroups", "setgroups32",
	"setregid", "setregid32",
	"setresgid", "setresgid32",
	"setresuid", "setresuid32",
	"setreuid", "setreuid32",
	"setuid", "setuid32",
}

// Install builds and loads the filter into the current process/thread
// group. It must run before the target program is exec'd, and is
// inherited across exec like any other seccomp filter.
func Install() error {
	filter, err := seccomp.NewFilter(seccomp.ActAllow)
	if err != nil {
		return fmt.Errorf("seccompfilter: new filter: %w", err)
	}
	defer filter.Release()

	errnoZero := seccomp.ActErrno.SetReturnCode(0)

	for _, name := range blockedSyscalls {
		call, err := seccomp.GetSyscallFromName(name)
		if err != nil {
			// Not every kernel/arch defines every legacy 32-bit variant;
			// skip syscalls this build's libseccomp doesn't recognize.
			continue
		}
		if err := filter.AddRule(call, errnoZero); err != nil {
			return fmt.Errorf("seccompfilter: add rule %s: %w", name, err)
		}
	}

	if err := filter.Load(); err != nil {
		return fmt.Errorf("seccompfilter: load: %w", err)
	}
	return nil
}
