package main

import "testing"

func TestLoginArgv0PrefixesDash(t *testing.T) {
	if got := loginArgv0("/bin/bash", true); got != "-bash" {
		t.Fatalf("loginArgv0 login = %q, want -bash", got)
	}
}

func TestLoginArgv0NonLoginNoPrefix(t *testing.T) {
	if got := loginArgv0("/bin/bash", false); got != "bash" {
		t.Fatalf("loginArgv0 non-login = %q, want bash", got)
	}
}

func TestBuildArgvInteractive(t *testing.T) {
	got := buildArgv("-bash", "", []string{"ignored", "args"})
	want := []string{"-bash"}
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("buildArgv interactive = %v, want %v", got, want)
	}
}

func TestBuildArgvCommand(t *testing.T) {
	got := buildArgv("bash", "echo hi", []string{"extra"})
	want := []string{"bash", "-c", "echo hi", "extra"}
	if len(got) != len(want) {
		t.Fatalf("buildArgv command = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("buildArgv command = %v, want %v", got, want)
		}
	}
}

func TestLookupIdentityRootFallback(t *testing.T) {
	id, err := lookupIdentity("root")
	if err != nil {
		// A real passwd entry for root may or may not resolve depending on
		// the test host, but LookupUser never errors for "root" unless the
		// passwd file is entirely absent, in which case lookupIdentity must
		// still fall back rather than propagate the error.
		t.Fatalf("lookupIdentity(root) returned error instead of falling back: %v", err)
	}
	if id.Username != "root" {
		t.Fatalf("lookupIdentity(root).Username = %q, want root", id.Username)
	}
}

func TestLookupIdentityUnknownUserIsFatal(t *testing.T) {
	_, err := lookupIdentity("nsu-test-definitely-nonexistent-user")
	if err == nil {
		t.Fatal("lookupIdentity(unknown) = nil error, want fatal error")
	}
}
