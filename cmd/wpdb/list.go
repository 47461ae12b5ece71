package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wireplumber/tracestore"
)

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every recorded event trace in trace-ID (arrival sequence) order",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _ := cmd.Flags().GetString("db")
			return runList(cmd, db)
		},
	}
	return cmd
}

func runList(cmd *cobra.Command, db string) error {
	s, err := tracestore.Open(db)
	if err != nil {
		return fmt.Errorf("wpdb: %w", err)
	}
	defer s.Close()

	return s.Each(func(id string, t *tracestore.Trace) error {
		status := "ok"
		if t.Cancelled {
			status = "cancelled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s prio=%-3d hooks=%-3d %s\n",
			id, t.EventType, t.Priority, len(t.Hooks), status)
		return nil
	})
}
