package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"wireplumber/hookset"
)

func newDocCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "doc <manifest.yaml>",
		Short: "Render a hook manifest as an HTML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoc(cmd, args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func runDoc(cmd *cobra.Command, path, out string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("wphookctl: %w", err)
	}
	manifest, err := hookset.Parse(data)
	if err != nil {
		return fmt.Errorf("wphookctl: %w", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("wphookctl: %w", err)
		}
		defer f.Close()
		w = f
	}

	ordered, _, _ := hookset.Order(manifest.Hooks)
	return hookset.RenderHTML(manifest, ordered, w)
}
