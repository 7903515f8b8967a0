package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beehive-swarm/beehive/internal/beename"
)

// newInjectRolesCmd creates the "beehive inject-roles" subcommand.
func newInjectRolesCmd(g *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "inject-roles [bee]",
		Short: "Reinject role prompts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := g.openHiveWithSupervisor(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			sup := h.Supervisor()
			if sup == nil {
				return fmt.Errorf("inject-roles: no role prompts configured")
			}

			var bees []beename.Name
			if !all && len(args) == 1 {
				name := beename.Name(args[0])
				if err := beename.ValidateAssignee(name); err != nil {
					return err
				}
				bees = []beename.Name{name}
			}

			if err := sup.InjectRoles(ctx, bees); err != nil {
				return err
			}
			fmt.Println("beehive: roles reinjected")
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "reinject every bee's role prompt")
	return cmd
}
