// Command nsu changes apparent identity to a target user and execs a shell
// or command as them, entirely inside an unprivileged user namespace
// (spec §4.9).
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// reexecMarker is argv[1] for the hidden re-exec that actually lands inside
// the new user namespace: CLONE_NEWUSER is created via Cloneflags on this
// re-exec (see reexecInUserNS in switch.go), never via an in-process
// unshare(2), which always
// fails with EINVAL from a multithreaded Go process.
const reexecMarker = "__nsu_init__"

func main() {
	if len(os.Args) > 1 && os.Args[1] == reexecMarker {
		nsInitMain(os.Args[2:])
		return
	}

	sw := &cmdSwitch{}
	app := sw.command()
	app.SilenceUsage = true
	app.SilenceErrors = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	if err := app.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
