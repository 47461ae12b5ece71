// Command wpdb is a command-line inspector for a tracestore database,
// the analogue of the teacher's cmd/mdb for this module's per-event
// hook traces: list recorded events and print one in detail, rather
// than mdb's machine-crew REPL.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wpdb",
		Short:         "Inspect a tracestore database of dispatched event traces",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("db", "wireplumber.trace.db", "path to the tracestore database")
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newShowCommand())
	return cmd
}
