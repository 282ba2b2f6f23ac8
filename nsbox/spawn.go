package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/cflynn/nsbox/shared/initsuper"
	"github.com/cflynn/nsbox/shared/procfile"
)

// spawnConfig carries everything the self-reexec'd __ns_init__ child needs,
// plus the bits the still-running outer process needs to finish the
// pidfile/pipe dance.
type spawnConfig struct {
	Program   string
	Args      []string
	InitMode  bool
	Automount bool
	Hostname  string
	CleanEnv  bool
	Timeout   int
	Pidfile   string

	// NewUserNS, UID and GID describe the user namespace to create (or not)
	// via Cloneflags/UidMappings below; OldRoot is passed through to the
	// child's own nsbuild.Config.
	NewUserNS bool
	UID, GID  int
	OldRoot   string
}

// spawn implements the fork topology of spec §4.7 and §5: the outer process
// clones a fresh copy of itself directly into the new mount/pid/uts(/user)
// namespaces — via SysProcAttr.Cloneflags on a self-reexec, the only way to
// create a new user namespace from a multithreaded Go process (unshare(2)
// in place requires a single-threaded caller and always fails here; see
// DESIGN.md's shared/nsbuild notes). The rootfs pivot itself then happens
// inside that child, once it is actually running inside the new
// namespaces — see nsinit.go. The outer process writes the pidfile and
// either blocks on the exit pipe (init mode) or waits on the child directly
// (boot mode); once the child is started and the pidfile written it exits
// the whole nsbox process, and it returns to its caller only with a setup
// error.
func spawn(cfg spawnConfig) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("nsbox: resolve self path: %w", err)
	}

	argv := []string{reexecMarker}
	if cfg.Automount {
		argv = append(argv, "-automount")
	}
	if cfg.InitMode {
		argv = append(argv, "-init")
	}
	if cfg.CleanEnv {
		argv = append(argv, "-clean-env")
	}
	if cfg.NewUserNS {
		argv = append(argv, "-new-userns")
	}
	argv = append(argv, "-oldroot", cfg.OldRoot)
	argv = append(argv, "-hostname", cfg.Hostname)
	argv = append(argv, "-timeout", strconv.Itoa(cfg.Timeout))
	argv = append(argv, "-pidfile", cfg.Pidfile)
	argv = append(argv, "--", cfg.Program)
	argv = append(argv, cfg.Args...)

	child := exec.Command(self, argv...)
	child.Stdin, child.Stdout, child.Stderr = os.Stdin, os.Stdout, os.Stderr
	child.Env = os.Environ()

	cloneflags := unix.CLONE_NEWNS | unix.CLONE_NEWPID | unix.CLONE_NEWUTS
	sp := &syscall.SysProcAttr{}
	if cfg.NewUserNS {
		cloneflags |= unix.CLONE_NEWUSER
		// Map the invoker's own id to 0 inside the new namespace — this is
		// the kernel's "unshare --map-root-user" trick, which needs no
		// privilege the invoker doesn't already have.
		sp.UidMappings = []syscall.SysProcIDMap{{ContainerID: 0, HostID: cfg.UID, Size: 1}}
		sp.GidMappings = []syscall.SysProcIDMap{{ContainerID: 0, HostID: cfg.GID, Size: 1}}
		sp.GidMappingsEnableSetgroups = false
	}
	sp.Cloneflags = uintptr(cloneflags)
	child.SysProcAttr = sp

	var pipeRead, pipeWrite *os.File
	if cfg.InitMode {
		pipeRead, pipeWrite, err = os.Pipe()
		if err != nil {
			return fmt.Errorf("nsbox: pipe: %w", err)
		}
		child.ExtraFiles = []*os.File{pipeWrite}
	}

	if err := child.Start(); err != nil {
		return fmt.Errorf("nsbox: clone: %w", err)
	}

	if err := procfile.WriteNewFile(cfg.Pidfile, "%d", child.Process.Pid); err != nil {
		return err
	}

	if cfg.InitMode {
		// Close this process's own copy of the write end now: the child
		// inherited its own copy across Start, and as long as this one
		// stays open too, pipeRead below never sees EOF even after the
		// child and every process it spawned have exited.
		pipeWrite.Close()
		code := readExitByte(pipeRead)
		os.Exit(code)
	}

	werr := child.Wait()
	code := initsuper.CodeFromExecErr(werr)
	_ = os.Remove(cfg.Pidfile)
	os.Exit(code)
	return nil
}

// readExitByte blocks for exactly one byte, retrying on EINTR, per spec
// §4.7's "outer launcher parent blocks on the pipe for exactly one byte".
func readExitByte(pipe *os.File) int {
	buf := make([]byte, 1)
	for {
		n, err := pipe.Read(buf)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return 255
		}
		if n > 0 {
			return int(buf[0])
		}
	}
}
