package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/cflynn/nsbox/shared/env"
	"github.com/cflynn/nsbox/shared/initsuper"
	"github.com/cflynn/nsbox/shared/nsbuild"
)

// exitPipeFD is the well-known descriptor the outer process hands down via
// cmd.ExtraFiles when init mode is in effect.
const exitPipeFD = 3

// nsInitMain is the body of the hidden __ns_init__ re-exec: this process is
// PID 1 of the new PID namespace (spec §4.7). It finishes the automounts
// that must happen after the PID-namespace fork, then either execs the
// program directly (boot mode) or forks it and supervises (init mode).
func nsInitMain(argv []string) {
	fs := flag.NewFlagSet(reexecMarker, flag.ExitOnError)
	automount := fs.Bool("automount", false, "")
	initMode := fs.Bool("init", false, "")
	cleanEnv := fs.Bool("clean-env", false, "")
	newUserNS := fs.Bool("new-userns", false, "")
	oldroot := fs.String("oldroot", "", "")
	hostname := fs.String("hostname", "", "")
	timeout := fs.Int("timeout", 5, "")
	pidfile := fs.String("pidfile", ".pid1", "")
	_ = fs.Parse(argv)

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "nsbox: missing program")
		os.Exit(1)
	}
	program := rest[0]
	progArgs := rest[1:]

	// The rootfs pivot happens here, inside the freshly cloned child, now
	// that the new mount/pid/uts(/user) namespaces actually exist — doing it
	// in the outer process (before the clone) would pivot the wrong
	// namespaces; doing it after a second self-reexec, as this tool once
	// did, can't work at all since /proc/self/exe no longer resolves once
	// the old rootfs is gone.
	if _, err := nsbuild.Build(nsbuild.Config{
		NewUserNS: *newUserNS,
		OldRoot:   *oldroot,
		Automount: *automount,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *automount {
		nsbuild.MountProc()
	}
	nsbuild.SetHostname(*hostname)

	environ := env.ForContainer(*cleanEnv, os.Environ())

	if !*initMode {
		execOrDie(program, progArgs, environ)
		return
	}

	cmd := exec.Command(program, progArgs...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	cmd.Env = environ
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "nsbox: exec %s: %v\n", program, err)
		os.Exit(127)
	}

	pipe := os.NewFile(exitPipeFD, "nsbox-exit-pipe")
	initsuper.Run(initsuper.Config{
		ProgramPID:  cmd.Process.Pid,
		PidfilePath: *pidfile,
		Timeout:     *timeout,
		ExitPipe:    pipe,
	})
}

// execOrDie replaces this process's image with program, as boot mode
// requires (no supervisor: the program itself is PID 1). An exec failure
// is always reported with exit code 127 (spec §4.8).
func execOrDie(program string, args []string, environ []string) {
	resolved, err := exec.LookPath(program)
	if err != nil {
		resolved = program
	}
	argv := append([]string{program}, args...)
	err = syscall.Exec(resolved, argv, environ)
	fmt.Fprintf(os.Stderr, "nsbox: exec %s: %v\n", program, err)
	os.Exit(127)
}
