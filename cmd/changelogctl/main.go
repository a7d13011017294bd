// Command changelogctl edits the changelog directly against its store,
// without going through the HTTP server.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(defaultOpener).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
