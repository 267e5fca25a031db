// Command svngo is a CLI client built over the svnclient facade: checkout,
// update, switch, commit, status, log, diff, merge, and conflict
// resolution against a repository-access session and a local working
// copy, grounded on the teacher's cobra-based root command layout
// (CLIContext, PersistentPreRunE, buildLogger).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "svngo: %v\n", err)
		os.Exit(1)
	}
}
