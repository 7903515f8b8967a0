package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beehive-swarm/beehive/internal/buildinfo"
)

// newRootCmd creates the root beehive command with all subcommands attached.
func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "beehive",
		Short:         "Beehive bee-swarm orchestrator",
		Long:          "beehive is the beekeeper-facing entry point for the bee swarm.\nIt manages session orchestration, the message bus, and the task engine.",
		Version:       fmt.Sprintf("beehive %s", buildinfo.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "path to config file (default: $BEEHIVE_HOME/config.toml)")

	cmd.AddCommand(
		newInitCmd(g),
		newInjectRolesCmd(g),
		newStartTaskCmd(g),
		newTaskCmd(g),
		newSendCmd(g),
		newStatusCmd(g),
		newLogsCmd(g),
		newAttachCmd(g),
		newRemindCmd(g),
		newDaemonCmd(g),
		newStopCmd(g),
	)

	return cmd
}
