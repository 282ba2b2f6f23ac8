package initsuper_test

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"

	"github.com/cflynn/nsbox/shared/initsuper"
)

// exitStatus and signalStatus build raw wait(2) status words: normal exit encodes the exit
// code in the high byte with a zero low 7 bits; a signal death encodes the
// signal number directly in the low 7 bits.
func exitStatus(code int) unix.WaitStatus { return unix.WaitStatus(code << 8) }
func signalStatus(sig unix.Signal) unix.WaitStatus { return unix.WaitStatus(sig) }

func TestExitCodeNormalExit(t *testing.T) {
	assert.Equal(t, 0, initsuper.ExitCode(exitStatus(0)))
	assert.Equal(t, 7, initsuper.ExitCode(exitStatus(7)))
	assert.Equal(t, 255, initsuper.ExitCode(exitStatus(255)))
}

func TestExitCodeSignalDeath(t *testing.T) {
	assert.Equal(t, 128+int(unix.SIGKILL), initsuper.ExitCode(signalStatus(unix.SIGKILL)))
	assert.Equal(t, 128+int(unix.SIGSEGV), initsuper.ExitCode(signalStatus(unix.SIGSEGV)))
}

func TestCodeFromExecErrNilIsZero(t *testing.T) {
	assert.Equal(t, 0, initsuper.CodeFromExecErr(nil))
}

func TestCodeFromExecErrNonExitErrorIs127(t *testing.T) {
	assert.Equal(t, 127, initsuper.CodeFromExecErr(errors.New("could not start")))
}

func TestCodeFromExecErrRelaysChildExitCode(t *testing.T) {
	err := exec.Command("sh", "-c", "exit 7").Run()
	assert.Equal(t, 7, initsuper.CodeFromExecErr(err))
}
