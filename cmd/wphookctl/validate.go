package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wireplumber/hookset"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest.yaml>",
		Short: "Parse a hook manifest and check it for structural errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
	return cmd
}

func runValidate(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("wphookctl: %w", err)
	}
	manifest, err := hookset.Parse(data)
	if err != nil {
		return fmt.Errorf("wphookctl: %w", err)
	}

	seen := make(map[string]bool, len(manifest.Hooks))
	for _, h := range manifest.Hooks {
		if h.Name == "" {
			return fmt.Errorf("wphookctl: hook with empty name in %s", path)
		}
		if seen[h.Name] {
			return fmt.Errorf("wphookctl: duplicate hook name %q in %s", h.Name, path)
		}
		seen[h.Name] = true
		if _, err := hookset.BuildInterests(h.Interests); err != nil {
			return fmt.Errorf("wphookctl: hook %q: %w", h.Name, err)
		}
	}

	if _, cyclic, err := hookset.Order(manifest.Hooks); err != nil {
		return fmt.Errorf("wphookctl: %w (cyclic: %v)", err, cyclic)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d hook(s) valid\n", path, len(manifest.Hooks))
	return nil
}
