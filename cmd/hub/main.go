// Command hub runs the point-of-sale edge sync hub: the terminal-facing
// HTTP surface plus the background push/pull engines that keep the
// local store and the cloud system of record converging.
package main

import (
	"fmt"
	"os"

	"github.com/possync/edgehub/cmd/hub/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
