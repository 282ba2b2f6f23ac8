// Command nsbox launches a program inside a fresh, unprivileged mount/pid/uts
// (optionally user) namespace rooted at a given directory, or re-enters an
// already-running one.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// reexecMarker is argv[1] for the hidden in-namespace init re-exec (§4.7).
// It never appears in --help.
const reexecMarker = "__ns_init__"

// reenterMarker is argv[1] for the hidden re-entry helper re-exec (§4.6): a
// short-lived, freshly started process whose only job is to setns into an
// already-running container's namespaces and exec the requested program.
const reenterMarker = "__ns_enter__"

func main() {
	if len(os.Args) > 1 && os.Args[1] == reexecMarker {
		nsInitMain(os.Args[2:])
		return
	}
	if len(os.Args) > 1 && os.Args[1] == reenterMarker {
		nsEnterMain(os.Args[2:])
		return
	}

	launch := &cmdLaunch{}
	app := launch.command()
	app.SilenceUsage = true
	app.SilenceErrors = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	if err := app.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
