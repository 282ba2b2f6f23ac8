package main

import (
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/sirupsen/logrus"
)

// nsInitMain is the body of the hidden __nsu_init__ re-exec: this process is
// the one actually running inside the freshly created user namespace (the
// namespace itself was created by Cloneflags on the clone that produced
// it — see reexecInUserNS in switch.go). Its only remaining job is the home-directory chdir a
// login shell needs and the final exec; everything else (identity lookup,
// environment, argv) was already resolved by the outer nsu process.
func nsInitMain(argv []string) {
	fs := flag.NewFlagSet(reexecMarker, flag.ExitOnError)
	login := fs.Bool("login", false, "")
	home := fs.String("home", "", "")
	_ = fs.Parse(argv)

	rest := fs.Args()
	if len(rest) < 2 {
		fmt.Fprintln(os.Stderr, "nsu: missing shell")
		os.Exit(1)
	}
	shell := rest[0]
	shellArgv := rest[1:]

	if *login {
		if err := os.Chdir(*home); err != nil {
			logrus.WithError(err).Warn("nsu: chdir home, falling back to /")
			_ = os.Chdir("/")
		}
	}

	if err := syscall.Exec(shell, shellArgv, os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "nsu: exec %s: %v\n", shell, err)
		os.Exit(127)
	}
}
