package unmount

import "testing"

func TestSharesPrefix(t *testing.T) {
	cases := []struct {
		prefix, path string
		want         bool
	}{
		{"/home/user/rootfs", "/home/user/rootfs", true},
		{"/home/user/rootfs", "/home/user/rootfs/proc", true},
		{"/home/user/rootfs", "/tmp", false},
		{"/home/user/rootfs", "/home", true}, // truncated compare per spec
		{"", "/anything", true},
	}
	for _, c := range cases {
		got := sharesPrefix(c.prefix, c.path)
		if got != c.want {
			t.Errorf("sharesPrefix(%q, %q) = %v, want %v", c.prefix, c.path, got, c.want)
		}
	}
}
