package main

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// newAttachCmd creates the "beehive attach" subcommand: hand off to the
// multiplexer's own attach command, inheriting this process's terminal.
func newAttachCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "attach",
		Short: "Attach to the multiplexer session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			c := exec.CommandContext(cmd.Context(), "tmux", "attach-session", "-t", cfg.Session)
			c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
			return c.Run()
		},
	}
}
