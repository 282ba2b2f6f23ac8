package main

import (
	"fmt"

	muser "github.com/moby/sys/user"
)

// identity is the resolved target of an nsu invocation.
type identity struct {
	Username string
	UID, GID int
	HomeDir  string
	Shell    string
}

// lookupIdentity resolves name against the passwd database. A missing
// explicitly-named user is fatal; a missing "root" (e.g. no /etc/passwd at
// all, as inside a minimal container) silently falls back to the
// conventional uid 0 identity (spec §4.9 step 1).
func lookupIdentity(name string) (identity, error) {
	pw, err := muser.LookupUser(name)
	if err != nil {
		if name == "root" {
			return identity{Username: "root", UID: 0, GID: 0, HomeDir: "/root", Shell: "/bin/sh"}, nil
		}
		return identity{}, fmt.Errorf("unknown user: %s", name)
	}

	shell := pw.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	home := pw.Home
	if home == "" {
		home = "/root"
	}

	return identity{Username: name, UID: pw.Uid, GID: pw.Gid, HomeDir: home, Shell: shell}, nil
}
