package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/task"
)

// newStartTaskCmd creates the "beehive start-task" subcommand.
func newStartTaskCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-task <text>",
		Short: "Create a task assigned to queen and notify via the message bus",
		Long: `start-task creates a task assigned to queen and sends queen a
task_update notification. Exit 0 on success, 2 if the session is not
running.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := g.openHive(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			taskID, err := h.Tasks.CreateTask(ctx, task.CreateParams{
				Title:       args[0],
				Description: args[0],
				CreatedBy:   beename.Beekeeper,
				Assignee:    beename.Queen,
			})
			if err != nil {
				return err
			}

			if err := h.Bus.Notify(ctx, beename.Beekeeper, beename.Queen, "task_update",
				fmt.Sprintf("new task %s: %s", taskID, args[0]), taskID, ""); err != nil {
				return &sessionNotRunningError{Cause: err}
			}

			fmt.Println(taskID)
			return nil
		},
	}
	return cmd
}

type sessionNotRunningError struct{ Cause error }

func (e *sessionNotRunningError) Error() string {
	return fmt.Sprintf("session not running: %v", e.Cause)
}
func (e *sessionNotRunningError) Unwrap() error { return e.Cause }
