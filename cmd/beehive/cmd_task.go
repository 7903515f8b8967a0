package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/bus"
	"github.com/beehive-swarm/beehive/internal/store"
	"github.com/beehive-swarm/beehive/internal/task"
)

// newTaskCmd creates the "beehive task" command group, a thin wrapper over
// the Task Engine (spec.md §6: list, details, create, assign, status,
// message, stats).
func newTaskCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect and drive the task engine",
	}
	cmd.AddCommand(
		newTaskListCmd(g),
		newTaskDetailsCmd(g),
		newTaskCreateCmd(g),
		newTaskAssignCmd(g),
		newTaskStatusCmd(g),
		newTaskMessageCmd(g),
		newTaskStatsCmd(g),
	)
	return cmd
}

func newTaskListCmd(g *globalFlags) *cobra.Command {
	var status, assignee string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := g.openHive(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			tasks, err := h.Store.ListTasks(ctx, store.ListTasksFilter{
				Status:     store.TaskStatus(status),
				AssignedTo: assignee,
			})
			if err != nil {
				return err
			}
			for _, t := range tasks {
				fmt.Printf("%s\t%-11s\t%-8s\t%s\n", t.TaskID, t.Status, t.AssignedTo, t.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&assignee, "assignee", "", "filter by assignee")
	return cmd
}

func newTaskDetailsCmd(g *globalFlags) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "details <task-id>",
		Short: "Show a task's status, assignee, and activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := g.openHive(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			progress, _, err := h.Tasks.GetProgress(ctx, args[0])
			if err != nil {
				return err
			}
			t := progress.Task
			fmt.Printf("%s  %s\n  status=%s priority=%s assignee=%s\n", t.TaskID, t.Title, t.Status, t.Priority, t.AssignedTo)
			if pretty {
				html, err := bus.RenderMarkdown(t.Description)
				if err != nil {
					return err
				}
				fmt.Printf("  %s\n", html)
			} else {
				fmt.Printf("  %s\n", t.Description)
			}
			for _, a := range progress.Activity {
				fmt.Printf("  [%s] %s: %s\n", a.CreatedAt.Format("2006-01-02T15:04:05Z"), a.ActivityType, a.Description)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "render the description as HTML instead of raw Markdown")
	return cmd
}

func newTaskCreateCmd(g *globalFlags) *cobra.Command {
	var description, priority, assignee, parent string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := g.openHive(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			taskID, err := h.Tasks.CreateTask(ctx, task.CreateParams{
				Title:        args[0],
				Description:  description,
				Priority:     store.Priority(priority),
				Assignee:     beename.Name(assignee),
				ParentTaskID: parent,
				CreatedBy:    beename.Beekeeper,
			})
			if err != nil {
				return err
			}
			fmt.Println(taskID)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "task description (required)")
	cmd.Flags().StringVar(&priority, "priority", "medium", "priority: low, medium, high, critical")
	cmd.Flags().StringVar(&assignee, "assignee", "", "initial assignee bee")
	cmd.Flags().StringVar(&parent, "parent", "", "parent task id")
	return cmd
}

func newTaskAssignCmd(g *globalFlags) *cobra.Command {
	var role, note, sender string
	cmd := &cobra.Command{
		Use:   "assign <task-id> <assignee>",
		Short: "Assign a task to a bee",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := g.openHive(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			assigner, err := senderIdentity(sender)
			if err != nil {
				return err
			}

			r := store.AssignmentRole(role)
			if r == "" {
				r = store.RolePrimary
			}
			return h.Tasks.Assign(ctx, args[0], beename.Name(args[1]), task.AssignParams{
				Assigner: assigner,
				Role:     r,
				Note:     note,
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "primary", "primary, reviewer, or collaborator")
	cmd.Flags().StringVar(&note, "note", "", "optional note")
	cmd.Flags().StringVar(&sender, "sender", "", "bee identity assigning this task; defaults to $BEEHIVE_BEE_NAME, then beekeeper")
	return cmd
}

func newTaskStatusCmd(g *globalFlags) *cobra.Command {
	var note, sender string
	cmd := &cobra.Command{
		Use:   "status <task-id> <new-status>",
		Short: "Transition a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := g.openHive(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			actor, err := senderIdentity(sender)
			if err != nil {
				return err
			}

			return h.Tasks.Transition(ctx, args[0], store.TaskStatus(args[1]), task.TransitionParams{
				Actor: actor,
				Note:  note,
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "optional note")
	cmd.Flags().StringVar(&sender, "sender", "", "bee identity making this transition; defaults to $BEEHIVE_BEE_NAME, then beekeeper")
	return cmd
}

// newTaskMessageCmd sends a message referencing a task through the Message
// Bus. --sender lets the invoking process declare its own bee identity
// instead of always appearing to come from beekeeper, grounded in the
// original CLI's "--sender" flag on its send command: this is what lets a
// bee reply to its own task assignment through the sanctioned path, as
// itself, rather than only the beekeeper-facing CLI ever being able to send.
func newTaskMessageCmd(g *globalFlags) *cobra.Command {
	var priority, sender string
	cmd := &cobra.Command{
		Use:   "message <task-id> <to> <content>",
		Short: "Send a message referencing a task",
		Args:  cobra.ExactArgs(3),
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

			deliveries, err := h.Bus.Send(ctx, from, beename.Name(args[1]), "instruction", args[2], bus.SendParams{
				TaskID:   args[0],
				Priority: store.MessagePriority(priority),
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
	cmd.Flags().StringVar(&priority, "priority", "normal", "low, normal, high, urgent")
	cmd.Flags().StringVar(&sender, "sender", "", "bee identity sending this message (i.e. --from); defaults to $BEEHIVE_BEE_NAME, then beekeeper")
	return cmd
}

func newTaskStatsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Aggregate task counts by status and assignee",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := g.openHive(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			_, summary, err := h.Tasks.GetProgress(ctx, "")
			if err != nil {
				return err
			}
			fmt.Println("by status:")
			for status, n := range summary.ByStatus {
				fmt.Printf("  %-11s %d\n", status, n)
			}
			fmt.Println("by assignee:")
			for assignee, n := range summary.ByAssignee {
				fmt.Printf("  %-10s %d\n", assignee, n)
			}
			return nil
		},
	}
}
