package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/beehive-swarm/beehive/internal/config"
	"github.com/beehive-swarm/beehive/internal/supervisor"
)

// newStopCmd creates the "beehive stop" subcommand: graceful shutdown with
// interactive confirmation, bypassable via non-TTY stdin answering "y"
// (spec.md §6 "stop — graceful shutdown with interactive confirmation").
func newStopCmd(g *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Graceful shutdown of the Supervisor daemon and multiplexer session",
		Long:  "Confirms, then sends a stop signal to the Supervisor daemon and kills\nthe multiplexer session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirmStop(cmd.InOrStdin(), cmd.OutOrStdout()) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}

			paths, err := config.ResolvePaths()
			if err != nil {
				return err
			}

			status, pid, err := supervisor.DaemonStatus(paths.PIDPath)
			if err != nil {
				return err
			}

			switch status {
			case supervisor.StatusStopped:
				fmt.Fprintln(cmd.OutOrStdout(), "beehive-dashd is not running")
			case supervisor.StatusStale:
				fmt.Fprintln(cmd.OutOrStdout(), "removing stale PID file (process already dead)")
				if err := supervisor.RemovePIDFile(paths.PIDPath); err != nil {
					return err
				}
			case supervisor.StatusRunning:
				fmt.Fprintf(cmd.OutOrStdout(), "sending SIGTERM to beehive-dashd (pid %d)\n", pid)
				if err := supervisor.StopDaemon(paths.PIDPath); err != nil {
					return err
				}
			}

			h, err := g.openHive(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()
			mux := h.Mux()
			if mux.SessionExists(cmd.Context(), h.Config.Session) {
				if err := mux.KillSession(cmd.Context(), h.Config.Session); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "stopped")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirmStop prompts on a real TTY; on a non-TTY stdin (scripts, CI) it
// reads one line and treats "y"/"yes" as confirmation, so piping "y" works
// non-interactively.
func confirmStop(in io.Reader, out io.Writer) bool {
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		fmt.Fprint(out, "stop the beehive swarm? [y/N] ")
	}
	line, _ := bufio.NewReader(in).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
