package reentry_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cflynn/nsbox/shared/reentry"
)

func writePidfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".pid1")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadPidMissingFile(t *testing.T) {
	pid, ok, err := reentry.ReadPid(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, pid)
}

func TestReadPidValid(t *testing.T) {
	path := writePidfile(t, "4242")
	pid, ok, err := reentry.ReadPid(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4242, pid)
}

func TestReadPidZeroOrNegativeIsInvalid(t *testing.T) {
	for _, content := range []string{"0", "-7"} {
		path := writePidfile(t, content)
		pid, ok, err := reentry.ReadPid(path)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 0, pid)
	}
}

func TestReadPidGarbageIsInvalid(t *testing.T) {
	path := writePidfile(t, "not-a-pid")
	pid, ok, err := reentry.ReadPid(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, pid)
}

func TestReadPidTooLongIsInvalid(t *testing.T) {
	path := writePidfile(t, strings.Repeat("1", reentry.MaxBytes))
	pid, ok, err := reentry.ReadPid(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, pid)
}

func TestLiveRejectsNonexistentPid(t *testing.T) {
	if _, err := os.Stat("/proc/1"); err != nil {
		t.Skip("no /proc available")
	}
	assert.False(t, reentry.Live(-1))
}
