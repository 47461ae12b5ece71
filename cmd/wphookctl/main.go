// Command wphookctl is an offline tool for hook manifests (spec §9
// "Global plugin registry" neighbours -- this is the authoring-time
// counterpart): validate, order, and doc, operating on the same YAML
// manifest documents hookset parses.
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
		Use:           "wphookctl",
		Short:         "Validate, order, and document hook manifests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newOrderCommand())
	cmd.AddCommand(newDocCommand())
	return cmd
}
