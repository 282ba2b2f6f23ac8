package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/cflynn/nsbox/shared/env"
	"github.com/cflynn/nsbox/shared/initsuper"
	"github.com/cflynn/nsbox/shared/reentry"
)

// enterConfig carries what the outer, already-running nsbox process knows
// and the freshly re-exec'd __ns_enter__ helper needs.
type enterConfig struct {
	PID      int
	SkipUser bool
	CleanEnv bool
	Program  string
	Args     []string
}

// reenter re-execs this binary as the hidden __ns_enter__ helper and waits
// for it, relaying its exit code. The setns sequence cannot safely run in
// the current process (see shared/reentry.Enter's doc comment), so the
// whole re-entry — setns, then exec the target program — happens in a
// dedicated child instead.
func reenter(cfg enterConfig) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("nsbox: resolve self path: %w", err)
	}

	argv := []string{reenterMarker, "-pid", strconv.Itoa(cfg.PID)}
	if cfg.SkipUser {
		argv = append(argv, "-skip-user")
	}
	if cfg.CleanEnv {
		argv = append(argv, "-clean-env")
	}
	argv = append(argv, "--", cfg.Program)
	argv = append(argv, cfg.Args...)

	child := exec.Command(self, argv...)
	child.Stdin, child.Stdout, child.Stderr = os.Stdin, os.Stdout, os.Stderr
	child.Env = os.Environ()

	err = child.Run()
	os.Exit(initsuper.CodeFromExecErr(err))
	return nil
}

// nsEnterMain is the body of the hidden __ns_enter__ re-exec: a minimal,
// freshly started process that setns's into the target container's
// namespaces and execs the requested program in place, satisfying the
// single-threaded requirement setns(CLONE_NEWUSER) and the mount namespace
// otherwise can't meet inside an ordinary, already-running Go process.
func nsEnterMain(argv []string) {
	fs := flag.NewFlagSet(reenterMarker, flag.ExitOnError)
	pid := fs.Int("pid", 0, "")
	skipUser := fs.Bool("skip-user", false, "")
	cleanEnv := fs.Bool("clean-env", false, "")
	_ = fs.Parse(argv)

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "nsbox: missing program")
		os.Exit(1)
	}
	program := rest[0]
	progArgs := rest[1:]

	if err := reentry.Enter(*pid, *skipUser); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.Chdir("/"); err != nil {
		fmt.Fprintf(os.Stderr, "nsbox: chdir /: %v\n", err)
		os.Exit(1)
	}

	environ := env.ForContainer(*cleanEnv, os.Environ())
	execOrDie(program, progArgs, environ)
}
