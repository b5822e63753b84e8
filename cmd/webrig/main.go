// Command webrig is the maintenance CLI for the webrig test library:
// browser installation, environment diagnostics, log-segment extraction,
// run history and artifact cleanup.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "webrig",
		Short:   "UI test-automation support toolkit",
		Version: version,
		Long: `webrig wraps Playwright, an HTML report, per-test video recording and a
shared tagged log file for parallel browser tests.

The CLI covers the maintenance side: installing browser binaries, checking
the environment, pulling one test's lines out of the shared log, listing
past runs and sweeping stale artifacts.`,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to webrig.properties (default: probe working directory)")

	root.AddCommand(
		installCmd(),
		doctorCmd(),
		logsCmd(),
		historyCmd(),
		cleanCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
