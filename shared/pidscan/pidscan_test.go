package pidscan_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cflynn/nsbox/shared/pidscan"
)

func TestScannerYieldsOwnPID(t *testing.T) {
	if _, err := os.Stat("/proc/self"); err != nil {
		t.Skip("no /proc available")
	}

	var s pidscan.Scanner
	defer s.Close()

	self := os.Getpid()
	found := false
	for {
		pid, ok, err := s.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		if pid == self {
			found = true
		}
	}
	assert.True(t, found, "expected to see our own pid %d among /proc entries", self)
}

func TestAnyOtherThanInitOnRealProc(t *testing.T) {
	if _, err := os.Stat("/proc/1"); err != nil {
		t.Skip("no /proc available")
	}

	// On a real host /proc will always contain more than just PID 1.
	ok, err := pidscan.AnyOtherThanInit()
	require.NoError(t, err)
	assert.True(t, ok)
}
