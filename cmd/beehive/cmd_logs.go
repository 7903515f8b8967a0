package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beehive-swarm/beehive/internal/beename"
)

// newLogsCmd creates the "beehive logs" subcommand: read recent pane
// output, delegated to the multiplexer via CapturePane (spec.md §6 "logs
// [bee] — read recent pane output (delegated to multiplexer)").
func newLogsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logs [bee]",
		Short: "Read recent pane output for a bee (or every bee)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := g.openHive(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			mux := h.Mux()
			bees := beename.Bees
			if len(args) == 1 {
				name := beename.Name(args[0])
				if err := beename.ValidateAssignee(name); err != nil {
					return err
				}
				bees = []beename.Name{name}
			}
			for _, bee := range bees {
				p, err := h.Panes.Resolve(bee)
				if err != nil {
					continue
				}
				out, err := mux.CapturePane(ctx, h.Config.Session, p)
				if err != nil {
					fmt.Printf("=== %s ===\n(unavailable: %v)\n", bee, err)
					continue
				}
				fmt.Printf("=== %s ===\n%s\n", bee, out)
			}
			return nil
		},
	}
}
