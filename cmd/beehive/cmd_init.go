package main

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/supervisor"
)

// newInitCmd creates the "beehive init" subcommand.
func newInitCmd(g *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the multiplexer session, spawn bees, and inject roles",
		Long: `init creates the multiplexer session configured by pane_mapping, spawns
one interactive process per bee from the command table, injects each bee's
role document, and waits for an acknowledgement pattern per bee.

Exit codes: 0 success, 2 already running (without --force), 3 multiplexer
unavailable, 4 role injection timeout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), g, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-initialize an already-running session")
	return cmd
}

// runInit is init's testable core.
func runInit(ctx context.Context, g *globalFlags, force bool) error {
	if _, err := exec.LookPath("tmux"); err != nil {
		return &multiplexerUnavailableError{Cause: err}
	}

	h, err := g.openHiveWithSupervisor(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	sup := h.Supervisor()
	if sup == nil {
		return fmt.Errorf("init: no role prompts configured")
	}

	if !force && sup.SessionExists(ctx) {
		return &alreadyRunningError{}
	}

	windows := supervisor.SessionConfig{Windows: map[beename.Name]supervisor.WindowSpec{}}
	for bee, cmdLine := range h.Config.Command {
		name := beename.Name(bee)
		if !beename.IsBee(name) {
			continue
		}
		windows.Windows[name] = supervisor.WindowSpec{Window: bee, Command: cmdLine}
	}

	if err := sup.Init(ctx, windows); err != nil {
		return err
	}
	fmt.Printf("beehive: session %q initialized\n", h.Config.Session)
	return nil
}

type multiplexerUnavailableError struct{ Cause error }

func (e *multiplexerUnavailableError) Error() string {
	return fmt.Sprintf("multiplexer unavailable: %v", e.Cause)
}
func (e *multiplexerUnavailableError) Unwrap() error { return e.Cause }

type alreadyRunningError struct{}

func (e *alreadyRunningError) Error() string {
	return "session already running (use --force to re-initialize)"
}
