// Command idshield execs a program behind a seccomp filter that makes every
// identity-changing syscall (setuid, setgid, setgroups, chown and their
// variants) a silent no-op instead of a real privilege change (spec §4.10).
// It takes no flags: idshield command [args...].
package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/cflynn/nsbox/shared/seccompfilter"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: idshield command [args...]")
		os.Exit(1)
	}

	if err := seccompfilter.Install(); err != nil {
		fmt.Fprintf(os.Stderr, "idshield: %v\n", err)
		os.Exit(1)
	}

	program := os.Args[1]
	resolved, err := exec.LookPath(program)
	if err != nil {
		resolved = program
	}
	if err := syscall.Exec(resolved, os.Args[1:], os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "idshield: exec %s: %v\n", program, err)
		os.Exit(127)
	}
}
