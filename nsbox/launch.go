package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/cflynn/nsbox/shared/nsbuild"
	"github.com/cflynn/nsbox/shared/policy"
	"github.com/cflynn/nsbox/shared/reentry"
)

const pidfileName = ".pid1"

type cmdLaunch struct {
	flagInit      bool
	flagBoot      bool
	flagKill      bool
	flagEnterOnly bool
	flagAutomount bool
	flagNoAutomnt bool
	flagCleanEnv  bool
	flagHostname  string
	flagOldroot   string
	flagTimeout   int
}

func (c *cmdLaunch) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "nsbox [options] dir program [args...]"
	cmd.Short = "Launch or re-enter an unprivileged namespace container"
	cmd.Long = `Description:
  nsbox launches program inside a fresh mount/pid/uts (and, for
  non-root invokers, user) namespace rooted at dir, or re-enters one
  already running there if dir/.pid1 names a live container.
`
	cmd.Args = cobra.MinimumNArgs(2)
	cmd.RunE = c.run

	cmd.Flags().BoolVarP(&c.flagInit, "init", "i", false, "Provide init (supervisor)")
	cmd.Flags().BoolVarP(&c.flagBoot, "boot", "b", false, "Program is init; no supervisor")
	cmd.Flags().BoolVarP(&c.flagKill, "kill", "k", false, "Kill the prior PID 1 and start fresh")
	cmd.Flags().BoolVarP(&c.flagEnterOnly, "enter-only", "E", false, "Enter existing namespace only; fail if none")
	cmd.Flags().BoolVarP(&c.flagAutomount, "automount", "A", false, "Force automount of /proc, /dev, /sys")
	cmd.Flags().BoolVarP(&c.flagNoAutomnt, "no-automount", "N", false, "Disable automounts")
	cmd.Flags().BoolVarP(&c.flagCleanEnv, "clean-env", "c", false, "Clean environment")
	cmd.Flags().StringVarP(&c.flagHostname, "hostname", "M", "", "Hostname override (default: basename of rootfs)")
	cmd.Flags().StringVarP(&c.flagOldroot, "oldroot", "r", "", "Oldroot mount location")
	cmd.Flags().IntVarP(&c.flagTimeout, "timeout", "t", 5, "Empty-namespace exit timeout in seconds (-1 forever)")

	// Flags after dir belong to the program, not to us (getopt's "+" rule).
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func (c *cmdLaunch) run(cmd *cobra.Command, args []string) error {
	dir := args[0]
	program := args[1]
	progArgs := args[2:]

	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("chdir %s: %w", dir, err)
	}

	initMode, err := c.resolveInitMode(program)
	if err != nil {
		return err
	}
	automount, err := c.resolveAutomount()
	if err != nil {
		return err
	}

	pid, ok, err := reentry.ReadPid(pidfileName)
	if err != nil {
		return fmt.Errorf("read pidfile: %w", err)
	}
	valid := ok && pid != 0 && reentry.Live(pid)

	if valid && c.flagKill {
		if err := unix.Kill(pid, unix.SIGKILL); err != nil {
			logrus.WithError(err).Warn("nsbox: kill previous pid 1")
		} else {
			logrus.Warnf("Killed previous pid 1 (%d)", pid)
		}
		valid = false
	}

	if valid {
		return c.enter(pid, program, progArgs)
	}

	if ok {
		// A pidfile existed but wasn't entered: stale, garbage, or killed.
		_ = os.Remove(pidfileName)
	}

	if c.flagEnterOnly {
		return fmt.Errorf("Cannot enter (-E) old namespace")
	}

	return c.fresh(dir, program, progArgs, initMode, automount)
}

// resolveInitMode implements spec §4.7's auto-detection and §9's explicit
// open-question resolution: the suffix check runs against the program
// argument itself (args[optind+1] equivalent), not a fixed argv index.
func (c *cmdLaunch) resolveInitMode(program string) (bool, error) {
	if c.flagInit && c.flagBoot {
		return false, fmt.Errorf("-i and -b are mutually exclusive")
	}
	t := policy.Auto
	if c.flagInit {
		t = policy.On
	}
	if c.flagBoot {
		t = policy.Off
	}
	return t.Resolve(!strings.HasSuffix(program, "/init")), nil
}

func (c *cmdLaunch) resolveAutomount() (bool, error) {
	if c.flagAutomount && c.flagNoAutomnt {
		return false, fmt.Errorf("-A and -N are mutually exclusive")
	}
	t := policy.Auto
	if c.flagAutomount {
		t = policy.On
	}
	if c.flagNoAutomnt {
		t = policy.Off
	}
	return t.Resolve(os.Geteuid() != 0), nil
}

func (c *cmdLaunch) oldrootDefault(newUserNS bool) string {
	if c.flagOldroot != "" {
		return c.flagOldroot
	}
	if newUserNS {
		return "oldroot"
	}
	return ""
}

func (c *cmdLaunch) fresh(dir, program string, progArgs []string, initMode, automount bool) error {
	newUserNS := os.Geteuid() != 0
	hostname := c.flagHostname
	if hostname == "" {
		resolved, err := nsbuild.Realpath(".")
		if err != nil {
			resolved = dir
		}
		hostname = filepath.Base(resolved)
	}

	return spawn(spawnConfig{
		Program:   program,
		Args:      progArgs,
		InitMode:  initMode,
		Automount: automount,
		Hostname:  hostname,
		CleanEnv:  c.flagCleanEnv,
		Timeout:   c.flagTimeout,
		Pidfile:   pidfileName,
		NewUserNS: newUserNS,
		UID:       os.Getuid(),
		GID:       os.Getgid(),
		OldRoot:   c.oldrootDefault(newUserNS),
	})
}

func (c *cmdLaunch) enter(pid int, program string, progArgs []string) error {
	skipUser := os.Geteuid() == 0
	return reenter(enterConfig{
		PID:      pid,
		SkipUser: skipUser,
		CleanEnv: c.flagCleanEnv,
		Program:  program,
		Args:     progArgs,
	})
}
