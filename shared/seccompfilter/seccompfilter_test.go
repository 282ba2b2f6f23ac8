package seccompfilter

import "testing"

func TestBlockedSyscallsHasNoDuplicates(t *testing.T) {
	seen := make(map[string]bool, len(blockedSyscalls))
	for _, name := range blockedSyscalls {
		if seen[name] {
			t.Fatalf("duplicate entry: %s", name)
		}
		seen[name] = true
	}
}

func TestBlockedSyscallsCoversIdentityFamily(t *testing.T) {
	want := []string{"setuid", "setgid", "setgroups", "chown", "setresuid", "setresgid"}
	seen := make(map[string]bool, len(blockedSyscalls))
	for _, name := range blockedSyscalls {
		seen[name] = true
	}
	for _, name := range want {
		if !seen[name] {
			t.Errorf("expected %s in blockedSyscalls", name)
		}
	}
}
