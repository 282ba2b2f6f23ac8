package env_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cflynn/nsbox/shared/env"
)

func TestForContainerPreserve(t *testing.T) {
	current := []string{"FOO=bar", "TERM=xterm"}
	assert.Equal(t, current, env.ForContainer(false, current))
}

func TestForContainerCleanKeepsTermAndSetsPath(t *testing.T) {
	current := []string{"FOO=bar", "TERM=xterm", "SECRET=shh"}
	got := env.ForContainer(true, current)
	assert.Equal(t, []string{"PATH=" + env.ContainerCleanPath, "TERM=xterm"}, got)
}

func TestForContainerCleanWithoutTerm(t *testing.T) {
	got := env.ForContainer(true, []string{"FOO=bar"})
	assert.Equal(t, []string{"PATH=" + env.ContainerCleanPath}, got)
}

func TestForIdentityLoginNonRoot(t *testing.T) {
	id := env.Identity{Username: "alice", UID: 1000, HomeDir: "/home/alice", Shell: "/bin/bash"}
	current := []string{"FOO=bar", "TERM=xterm", "PATH=/weird"}

	got := env.ForIdentity(id, true, current)

	assert.Contains(t, got, "HOME=/home/alice")
	assert.Contains(t, got, "USER=alice")
	assert.Contains(t, got, "LOGNAME=alice")
	assert.Contains(t, got, "SHELL=/bin/bash")
	assert.Contains(t, got, "PATH="+env.UserPath)
	assert.Contains(t, got, "TERM=xterm")
	assert.NotContains(t, got, "FOO=bar")
}

func TestForIdentityLoginRootGetsRootPath(t *testing.T) {
	id := env.Identity{Username: "root", UID: 0, HomeDir: "/root", Shell: "/bin/sh"}
	got := env.ForIdentity(id, true, nil)
	assert.Equal(t, []string{
		"PATH=" + env.RootPath,
		"USER=root",
		"LOGNAME=root",
		"HOME=/root",
		"SHELL=/bin/sh",
	}, got)
}

func TestForIdentityNonLoginRootLeavesUserLognameAlone(t *testing.T) {
	id := env.Identity{Username: "root", UID: 0, HomeDir: "/root", Shell: "/bin/sh"}
	current := []string{"FOO=bar", "HOME=/home/caller", "USER=caller", "PATH=/weird"}

	got := env.ForIdentity(id, false, current)

	assert.Contains(t, got, "FOO=bar")
	assert.Contains(t, got, "PATH=/weird")
	assert.Contains(t, got, "USER=caller")
	assert.Contains(t, got, "HOME=/root")
	assert.Contains(t, got, "SHELL=/bin/sh")
	assert.NotContains(t, got, "HOME=/home/caller")
}

func TestForIdentityNonLoginNonRootOverridesUserLogname(t *testing.T) {
	id := env.Identity{Username: "alice", UID: 1000, HomeDir: "/home/alice", Shell: "/bin/bash"}
	current := []string{"HOME=/root", "USER=root", "LOGNAME=root"}

	got := env.ForIdentity(id, false, current)

	assert.Contains(t, got, "USER=alice")
	assert.Contains(t, got, "LOGNAME=alice")
	assert.Contains(t, got, "HOME=/home/alice")
	assert.NotContains(t, got, "USER=root")
	assert.NotContains(t, got, "HOME=/root")
}
