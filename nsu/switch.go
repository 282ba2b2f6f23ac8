package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/cflynn/nsbox/shared/env"
	"github.com/cflynn/nsbox/shared/initsuper"
)

// cmdSwitch implements nsu's single command: become a target identity inside
// a fresh user namespace and exec a login or non-login shell, or -c command,
// as them (spec §4.9).
type cmdSwitch struct {
	flagPreserveEnv bool
	flagLogin       bool
	flagShell       string
	flagCommand     string
}

func (c *cmdSwitch) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "nsu [options] [user [args...]]"
	cmd.Short = "Switch identity inside a fresh unprivileged user namespace"
	cmd.Long = `Description:
  nsu maps the invoking user onto a target identity inside a new user
  namespace and execs a shell (or, with -c, a command) as them. No
  privilege is required or used: the target uid/gid only ever exist as
  a namespace-local view of the invoker's own mapping.
`
	cmd.RunE = c.run

	cmd.Flags().BoolVarP(&c.flagPreserveEnv, "preserve-environment", "p", false, "Use $SHELL as the shell when -s is not given (the environment is still rebuilt for the target)")
	cmd.Flags().BoolVarP(&c.flagPreserveEnv, "preserve-environment-m", "m", false, "Alias for -p")
	cmd.Flags().BoolVarP(&c.flagLogin, "login", "l", false, "Start a login shell")
	cmd.Flags().StringVarP(&c.flagShell, "shell", "s", "", "Shell to run instead of the target's passwd entry")
	cmd.Flags().StringVarP(&c.flagCommand, "command", "c", "", "Run a single command via the shell's -c")

	return cmd
}

func (c *cmdSwitch) run(cmd *cobra.Command, args []string) error {
	username := "root"
	login := c.flagLogin
	var rest []string

	if len(args) > 0 && args[0] == "-" {
		login = true
		args = args[1:]
	}
	if len(args) > 0 {
		username = args[0]
		rest = args[1:]
	}

	id, err := lookupIdentity(username)
	if err != nil {
		return err
	}

	muid, mgid := os.Getuid(), os.Getgid()
	needUserNS := id.UID != muid
	if needUserNS {
		if err := safetyGate(id.UID); err != nil {
			return err
		}
	}

	shell := c.flagShell
	if shell == "" && c.flagPreserveEnv {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = id.Shell
	}

	environ := env.ForIdentity(env.Identity{
		Username: id.Username,
		UID:      id.UID,
		HomeDir:  id.HomeDir,
		Shell:    shell,
	}, login, os.Environ())

	argv := buildArgv(loginArgv0(shell, login), c.flagCommand, rest)

	resolved, err := exec.LookPath(shell)
	if err != nil {
		resolved = shell
	}

	if !needUserNS {
		if login {
			if err := os.Chdir(id.HomeDir); err != nil {
				logrus.WithError(err).Warn("nsu: chdir home, falling back to /")
				_ = os.Chdir("/")
			}
		}
		if err := syscall.Exec(resolved, argv, environ); err != nil {
			fmt.Fprintf(os.Stderr, "nsu: exec %s: %v\n", shell, err)
			os.Exit(127)
		}
		return nil
	}

	return reexecInUserNS(id, muid, mgid, login, resolved, argv, environ)
}

// reexecInUserNS creates the target identity's user namespace the only way a
// multithreaded Go process can: as Cloneflags/UidMappings on a clone of a
// fresh child, rather than an in-process unshare(2) (which requires a
// single-threaded caller and always fails with EINVAL here). The child is
// the hidden __nsu_init__ re-exec, which performs the login chdir (if any)
// and the final exec once it is actually running inside the new namespace.
func reexecInUserNS(id identity, muid, mgid int, login bool, resolved string, argv, environ []string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("nsu: resolve self path: %w", err)
	}

	childArgv := []string{reexecMarker}
	if login {
		childArgv = append(childArgv, "-login", "-home", id.HomeDir)
	}
	childArgv = append(childArgv, "--", resolved)
	childArgv = append(childArgv, argv...)

	child := exec.Command(self, childArgv...)
	child.Stdin, child.Stdout, child.Stderr = os.Stdin, os.Stdout, os.Stderr
	child.Env = environ
	child.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: uintptr(unix.CLONE_NEWUSER),
		// Unlike nsbox, which always maps 0 inside, the inside id is the
		// target's; the outside id is still the invoker's real id (spec §4.9 step 2).
		UidMappings:                []syscall.SysProcIDMap{{ContainerID: id.UID, HostID: muid, Size: 1}},
		GidMappings:                []syscall.SysProcIDMap{{ContainerID: id.GID, HostID: mgid, Size: 1}},
		GidMappingsEnableSetgroups: false,
	}

	os.Exit(initsuper.CodeFromExecErr(child.Run()))
	return nil
}

// loginArgv0 is the shell's argv[0]: its basename, conventionally prefixed
// with "-" to mark a login shell (spec §4.9 step 4).
func loginArgv0(shell string, login bool) string {
	argv0 := filepath.Base(shell)
	if login {
		argv0 = "-" + argv0
	}
	return argv0
}

// buildArgv assembles the exec argv: argv0 alone for an interactive shell,
// or argv0 "-c" command rest... when a command was given via -c.
func buildArgv(argv0, command string, rest []string) []string {
	if command != "" {
		return append([]string{argv0, "-c", command}, rest...)
	}
	return []string{argv0}
}

// safetyGate refuses to run if the invoker turns out to hold real privilege:
// an unprivileged process can never make setuid(2) to an arbitrary uid
// succeed, so either outcome here means nsu is being misused by someone who
// is already root (spec §4.9 step 2 / design note: "do not run nsu as root").
func safetyGate(targetUID int) error {
	err := unix.Setuid(targetUID)
	if err == nil {
		return fmt.Errorf("nsu: refusing to run: this process can already become uid %s", strconv.Itoa(targetUID))
	}
	if errors.Is(err, unix.EAGAIN) {
		return fmt.Errorf("nsu: refusing to run: setuid probe returned EAGAIN (real privilege present)")
	}
	return nil
}
