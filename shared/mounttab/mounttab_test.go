package mounttab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cflynn/nsbox/shared/mounttab"
)

func TestUnescapeDecodesOctalEscapes(t *testing.T) {
	assert.Equal(t, "/mnt/my dir", mounttab.Unescape(`/mnt/my\040dir`))
	assert.Equal(t, "/plain/path", mounttab.Unescape("/plain/path"))
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	cases := []string{
		"/plain/path",
		"/mnt/my dir",
		"/has\ttab",
		`/has\backslash`,
		"/has\nnewline",
	}
	for _, c := range cases {
		escaped := mounttab.Escape(c)
		assert.Equal(t, c, mounttab.Unescape(escaped), "round trip for %q", c)
	}
}

func TestReadSelfSeesRootMount(t *testing.T) {
	entries, err := mounttab.ReadSelf()
	if err != nil {
		t.Skip("no /proc/self/mounts available")
	}

	found := false
	for _, e := range entries {
		if e.Path == "/" {
			found = true
		}
	}
	assert.True(t, found, "expected an entry for / in %v", entries)
}
