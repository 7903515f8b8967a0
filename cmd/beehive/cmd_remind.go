package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beehive-swarm/beehive/internal/beename"
)

// newRemindCmd creates the "beehive remind" subcommand: force Supervisor
// duty #2 immediately, for one bee or every bee.
func newRemindCmd(g *globalFlags) *cobra.Command {
	var bee string
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Force Supervisor duty #2 (role reminders) immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := g.openHiveWithSupervisor(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			sup := h.Supervisor()
			if sup == nil {
				return fmt.Errorf("remind: no role prompts configured")
			}

			if bee != "" {
				name := beename.Name(bee)
				if err := beename.ValidateAssignee(name); err != nil {
					return err
				}
				return sup.RemindBee(ctx, name)
			}
			for _, b := range beename.Bees {
				if err := sup.RemindBee(ctx, b); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bee, "bee", "", "remind a single bee instead of every bee")
	return cmd
}
