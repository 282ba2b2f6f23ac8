// Package env builds the environment handed to an exec'd program: the
// clean/preserve policy for a freshly launched container (spec §4.8), and
// the login/non-login identity environment for the identity switcher
// (spec §4.9).
package env

import "strings"

// Root and non-root PATH defaults, matching the identity switcher's two
// variants and the launcher's clean-environment PATH.
const (
	ContainerCleanPath = "/bin:/sbin:/usr/bin:/usr/sbin"
	RootPath           = "/bin:/sbin:/usr/bin:/usr/sbin"
	UserPath           = "/bin:/usr/bin"
)

// Identity is the target user a login/non-login environment is built for.
type Identity struct {
	Username string
	UID      int
	HomeDir  string
	Shell    string
}

// pathFor returns the identity's default PATH.
func pathFor(uid int) string {
	if uid == 0 {
		return RootPath
	}
	return UserPath
}

// ForContainer builds the environment for a freshly launched container. A
// clean environment contains exactly PATH plus, if the caller had TERM
// set, TERM verbatim; a preserved one is passed through unchanged.
func ForContainer(clean bool, current []string) []string {
	if !clean {
		return current
	}

	out := []string{"PATH=" + ContainerCleanPath}
	if term, ok := lookup(current, "TERM"); ok {
		out = append(out, "TERM="+term)
	}
	return out
}

// ForIdentity builds the environment for exec-ing as id. A login shell
// clears the caller's environment and sets TERM (if present), PATH, USER,
// LOGNAME, HOME and SHELL. A non-login shell keeps the caller's
// environment untouched except for HOME and SHELL (always overridden) and
// USER/LOGNAME (overridden only when the target is not uid 0).
func ForIdentity(id Identity, login bool, current []string) []string {
	if login {
		out := []string{"PATH=" + pathFor(id.UID)}
		if term, ok := lookup(current, "TERM"); ok {
			out = append(out, "TERM="+term)
		}
		return append(out,
			"USER="+id.Username,
			"LOGNAME="+id.Username,
			"HOME="+id.HomeDir,
			"SHELL="+id.Shell,
		)
	}

	out := filterOutKeys(current, "HOME", "SHELL")
	out = append(out, "HOME="+id.HomeDir, "SHELL="+id.Shell)
	if id.UID != 0 {
		out = filterOutKeys(out, "USER", "LOGNAME")
		out = append(out, "USER="+id.Username, "LOGNAME="+id.Username)
	}
	return out
}

func lookup(env []string, key string) (string, bool) {
	prefix := key + "="
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			return kv[len(prefix):], true
		}
	}
	return "", false
}

func filterOutKeys(env []string, keys ...string) []string {
	out := make([]string, 0, len(env))
	for _, kv := range env {
		drop := false
		for _, key := range keys {
			if strings.HasPrefix(kv, key+"=") {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, kv)
		}
	}
	return out
}
