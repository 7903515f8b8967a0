package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/bus"
	"github.com/beehive-swarm/beehive/internal/store"
)

// newSendCmd is the generic Message Bus send command, grounded in the
// original CLI's "send" subparser (--sender, --type, --metadata, --dry-run).
// Unlike "task message", it does not require a task reference, and its
// --sender flag is the primary way a bee replies to another bee through the
// sanctioned path, as itself, without going through task.
func newSendCmd(g *globalFlags) *cobra.Command {
	var msgType, subject, taskID, priority, sender string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "send <to> <content>",
		Short: "Send a message through the Message Bus",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := g.openHive(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			from, err := senderIdentity(sender)
			if err != nil {
				return err
			}
			if msgType == "" {
				msgType = "instruction"
			}

			deliveries, err := h.Bus.Send(ctx, from, beename.Name(args[0]), msgType, args[1], bus.SendParams{
				Subject:  subject,
				TaskID:   taskID,
				Priority: store.MessagePriority(priority),
				DryRun:   dryRun,
			})
			if err != nil {
				return err
			}
			for _, d := range deliveries {
				if d.Err != nil {
					return d.Err
				}
				fmt.Println(d.MessageID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&msgType, "type", "instruction", "message type (role_injection, task_assignment, instruction, ...)")
	cmd.Flags().StringVar(&subject, "subject", "", "optional subject line")
	cmd.Flags().StringVar(&taskID, "task-id", "", "optional task reference")
	cmd.Flags().StringVar(&priority, "priority", "normal", "low, normal, high, urgent")
	cmd.Flags().StringVar(&sender, "sender", "", "bee identity sending this message (i.e. --from); defaults to $BEEHIVE_BEE_NAME, then beekeeper")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log the send without invoking the multiplexer")
	return cmd
}
