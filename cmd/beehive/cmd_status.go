package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// newStatusCmd creates the "beehive status" subcommand.
func newStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print bee liveness and task counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := g.openHive(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			states, err := h.Store.ListStates(ctx)
			if err != nil {
				return err
			}
			fmt.Println("bees:")
			for _, st := range states {
				age := time.Since(st.LastHeartbeat).Round(time.Second)
				fmt.Printf("  %-10s %-8s task=%-8s last_heartbeat=%s ago\n", st.BeeName, st.Status, orNone(st.CurrentTaskID), age)
			}

			_, summary, err := h.Tasks.GetProgress(ctx, "")
			if err != nil {
				return err
			}
			fmt.Println("tasks by status:")
			for status, n := range summary.ByStatus {
				fmt.Printf("  %-11s %d\n", status, n)
			}
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
