package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wireplumber/hookset"
)

func newOrderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <manifest.yaml>",
		Short: "Print the execution order of every hook in a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd, args[0])
		},
	}
	return cmd
}

func runOrder(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("wphookctl: %w", err)
	}
	manifest, err := hookset.Parse(data)
	if err != nil {
		return fmt.Errorf("wphookctl: %w", err)
	}

	ordered, cyclic, err := hookset.Order(manifest.Hooks)
	for _, name := range ordered {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "cycle: %v\n", cyclic)
		return err
	}
	return nil
}
