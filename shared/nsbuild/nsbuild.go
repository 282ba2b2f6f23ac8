// Package nsbuild performs the unprivileged rootfs pivot: bind rootfs onto
// itself, move it onto "/", then chroot. See spec §4.4 for the step-by-step
// rationale. The mount/pid/uts(/user) namespaces themselves are created
// earlier, as syscall.SysProcAttr.Cloneflags on the process that execs this
// code — see nsbox/spawn.go — not by this package.
package nsbuild

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/cflynn/nsbox/shared/unmount"
)

// Config describes one rootfs pivot. The caller must already have
// chdir'd into the directory that is to become "/" before calling Build —
// Build resolves it via the current directory, exactly as the original
// tool's realpath(".") does once chdir(dir) has run. The caller must also
// already be running inside its new mount/pid/uts(/user) namespaces: Build
// only pivots the root, it does not unshare anything.
type Config struct {
	// NewUserNS records whether this launch is running inside a new user
	// namespace (created by the caller's clone, not by Build). It only
	// selects user-mode (symlink) vs. superuser-mode (bind-mount) automount
	// behaviour for /dev and /sys.
	NewUserNS bool
	// OldRoot, if non-empty, is a directory (relative to the rootfs) where
	// the previous root is bind-mounted for later reachability, and the
	// target of the /dev, /sys symlinks in user mode.
	OldRoot string
	// Automount enables /dev, /sys handling. /proc is handled separately by
	// MountProc, once inside the new PID namespace.
	Automount bool
}

// Result carries values resolved during Build that later steps need.
type Result struct {
	AbsPath string
}

// Realpath resolves path the way the original tool's realpath(3) call does:
// absolute, with every symlink component resolved. nsbox/launch.go uses it,
// already chdir'd into the target directory, to compute the default
// container hostname from the same path Build itself pivots onto.
func Realpath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("nsbuild: resolve %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("nsbuild: realpath %s: %w", path, err)
	}
	return resolved, nil
}

// Build performs the rootfs pivot sequence of spec §4.4, plus the /dev,
// /sys automount policy of §4.5. Every step here is fatal on error except
// the automount and oldroot steps, which are best-effort (spec §7, tier 2)
// and only logged.
func Build(cfg Config) (Result, error) {
	absPath, err := Realpath(".")
	if err != nil {
		return Result{}, err
	}

	// Mark "/" slave so caller-observed mounts propagate in, never out.
	if err := unix.Mount("", "/", "", unix.MS_REC|unix.MS_SLAVE, ""); err != nil {
		return Result{}, fmt.Errorf("nsbuild: slave mount: %w", err)
	}

	// MS_MOVE requires its source to itself be a mount; an unprivileged
	// bind-mount-onto-itself satisfies that without touching the host.
	if err := unix.Mount(absPath, absPath, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
		return Result{}, fmt.Errorf("nsbuild: bind mount rootfs onto itself: %w", err)
	}

	if err := os.Chdir(absPath); err != nil {
		return Result{}, fmt.Errorf("nsbuild: chdir rootfs: %w", err)
	}

	if cfg.Automount {
		setupDevSys(cfg)
	}

	if cfg.OldRoot != "" {
		if err := os.Mkdir(cfg.OldRoot, 0o755); err != nil && !os.IsExist(err) {
			logrus.WithError(err).Warn("nsbuild: mkdir oldroot")
		}
		if err := unix.Mount("/", cfg.OldRoot, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
			logrus.WithError(err).Warn("nsbuild: bind mount oldroot")
		}
	}

	if _, err := unmount.All(absPath); err != nil {
		return Result{}, fmt.Errorf("nsbuild: unmount host mounts: %w", err)
	}

	if err := unix.Mount(absPath, "/", "", unix.MS_MOVE, ""); err != nil {
		return Result{}, fmt.Errorf("nsbuild: move mount: %w", err)
	}

	if err := unix.Chroot("."); err != nil {
		return Result{}, fmt.Errorf("nsbuild: chroot: %w", err)
	}
	if err := os.Chdir("/"); err != nil {
		return Result{}, fmt.Errorf("nsbuild: chdir /: %w", err)
	}

	return Result{AbsPath: absPath}, nil
}

// setupDevSys implements the dev/sys half of the automount policy (§4.5):
// user-mode gets symlinks into oldroot, superuser-mode gets real bind
// mounts. Failures here never abort the launch.
func setupDevSys(cfg Config) {
	_ = os.Remove("dev")
	_ = os.Remove("sys")

	if cfg.NewUserNS {
		devTarget := filepath.Join(cfg.OldRoot, "dev")
		sysTarget := filepath.Join(cfg.OldRoot, "sys")
		if err := os.Symlink(devTarget, "dev"); err != nil {
			logrus.WithError(err).Warn("nsbuild: dev symlink")
		}
		if err := os.Symlink(sysTarget, "sys"); err != nil {
			logrus.WithError(err).Warn("nsbuild: sys symlink")
		}
		return
	}

	_ = os.Mkdir("dev", 0o755)
	_ = os.Mkdir("sys", 0o755)
	if err := unix.Mount("/dev", "dev", "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
		logrus.WithError(err).Warn("nsbuild: mount /dev")
	}
	if err := unix.Mount("/sys", "sys", "", unix.MS_BIND, ""); err != nil {
		logrus.WithError(err).Warn("nsbuild: mount /sys")
	}
}

// MountProc mounts a fresh procfs at /proc. It must run after the PID
// namespace's founding fork, inside the new namespace, so procfs reflects
// it. Best-effort: errors are logged, not fatal.
func MountProc() {
	_ = os.Mkdir("proc", 0o755)
	if err := unix.Mount("proc", "/proc", "proc", unix.MS_NOEXEC|unix.MS_NOSUID|unix.MS_NODEV, ""); err != nil {
		logrus.WithError(err).Warn("nsbuild: mount /proc")
	}
}

// SetHostname sets the container's UTS hostname. Best-effort.
func SetHostname(name string) {
	if err := unix.Sethostname([]byte(name)); err != nil {
		logrus.WithError(err).Warn("nsbuild: sethostname")
	}
}
