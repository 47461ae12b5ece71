package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wireplumber/tracestore"
)

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one recorded event trace's hook-by-hook detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _ := cmd.Flags().GetString("db")
			return runShow(cmd, db, args[0])
		},
	}
	return cmd
}

func runShow(cmd *cobra.Command, db, id string) error {
	s, err := tracestore.Open(db)
	if err != nil {
		return fmt.Errorf("wpdb: %w", err)
	}
	defer s.Close()

	t, found, err := s.Get(id)
	if err != nil {
		return fmt.Errorf("wpdb: %w", err)
	}
	if !found {
		return fmt.Errorf("wpdb: no trace recorded under %q", id)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "event:     %s (priority %d)\n", t.EventType, t.Priority)
	fmt.Fprintf(w, "started:   %s\n", t.StartedAt.Format("2006-01-02T15:04:05.000Z07:00"))
	fmt.Fprintf(w, "cancelled: %v\n", t.Cancelled)
	fmt.Fprintf(w, "hooks:\n")
	for i, h := range t.Hooks {
		kind := "sync"
		if h.Async {
			kind = "async"
		}
		fmt.Fprintf(w, "  %02d. %-20s %-5s %v", i, h.Hook, kind, h.Duration)
		if len(h.Steps) > 0 {
			fmt.Fprintf(w, " steps=%v", h.Steps)
		}
		if h.Err != "" {
			fmt.Fprintf(w, " err=%q", h.Err)
		}
		fmt.Fprintln(w)
	}
	return nil
}
