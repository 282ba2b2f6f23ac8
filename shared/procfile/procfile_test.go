package procfile_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cflynn/nsbox/shared/procfile"
)

func TestWriteNewFileCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".pid1")
	err := procfile.WriteNewFile(path, "%d", 4242)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "4242", string(got))
}

func TestWriteNewFileRejectsOverlongFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".pid1")

	huge := strings.Repeat("x", 200)
	err := procfile.WriteNewFile(path, "%s", huge)
	assert.Error(t, err)
}

func TestWriteNewFileFailsWhenDirMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", ".pid1")
	err := procfile.WriteNewFile(path, "%d", 1)
	assert.Error(t, err)
}
