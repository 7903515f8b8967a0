package main

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beehive-swarm/beehive/internal/config"
	"github.com/beehive-swarm/beehive/internal/supervisor"
)

// newDaemonCmd creates the "beehive daemon" command group, managing the
// beehive-dashd Supervisor process by PID file (spec.md §6 "daemon
// {start|stop|status|restart|remind|logs [n]}").
func newDaemonCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the beehive-dashd Supervisor process",
	}
	cmd.AddCommand(
		newDaemonStartCmd(g),
		newDaemonStopCmd(g),
		newDaemonStatusCmd(g),
		newDaemonRestartCmd(g),
		newDaemonRemindCmd(g),
		newDaemonLogsCmd(g),
	)
	return cmd
}

func newDaemonStartCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the Supervisor daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := config.ResolvePaths()
			if err != nil {
				return err
			}
			status, _, err := supervisor.DaemonStatus(paths.PIDPath)
			if err != nil {
				return err
			}
			if status == supervisor.StatusRunning {
				return &alreadyRunningError{}
			}

			dashd, err := exec.LookPath("beehive-dashd")
			if err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}
			var cmdArgs []string
			if g.configPath != "" {
				cmdArgs = append(cmdArgs, "--config", g.configPath)
			}
			c := exec.Command(dashd, cmdArgs...)

			logFile, err := os.OpenFile(paths.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			c.Stdout, c.Stderr = logFile, logFile
			if err := c.Start(); err != nil {
				_ = logFile.Close()
				return fmt.Errorf("start daemon: %w", err)
			}
			_ = logFile.Close()
			fmt.Printf("beehive-dashd started, pid %d\n", c.Process.Pid)
			return nil
		},
	}
}

func newDaemonStopCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the Supervisor daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := config.ResolvePaths()
			if err != nil {
				return err
			}
			if err := supervisor.StopDaemon(paths.PIDPath); err != nil {
				return err
			}
			fmt.Println("beehive-dashd: stop signal sent")
			return nil
		},
	}
}

func newDaemonStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the Supervisor daemon is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := config.ResolvePaths()
			if err != nil {
				return err
			}
			status, pid, err := supervisor.DaemonStatus(paths.PIDPath)
			if err != nil {
				return err
			}
			if pid == 0 {
				fmt.Println(status)
				return nil
			}
			fmt.Printf("%s (pid %d)\n", status, pid)
			return nil
		},
	}
}

func newDaemonRestartCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Stop and restart the Supervisor daemon",
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		paths, err := config.ResolvePaths()
		if err != nil {
			return err
		}
		if status, _, err := supervisor.DaemonStatus(paths.PIDPath); err == nil && status == supervisor.StatusRunning {
			if err := supervisor.StopDaemon(paths.PIDPath); err != nil {
				return err
			}
		}
		return newDaemonStartCmd(g).RunE(cmd, args)
	}
	return cmd
}

func newDaemonRemindCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send role reminders now, in this process (same as top-level remind)",
		RunE:  newRemindCmd(g).RunE,
	}
}

func newDaemonLogsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logs [n]",
		Short: "Print the last n lines of the daemon's log file (default 50)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := config.ResolvePaths()
			if err != nil {
				return err
			}
			n := 50
			if len(args) == 1 {
				n, err = strconv.Atoi(args[0])
				if err != nil {
					return err
				}
			}
			data, err := os.ReadFile(paths.LogPath)
			if err != nil {
				return err
			}
			lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			if len(lines) > n {
				lines = lines[len(lines)-n:]
			}
			for _, l := range lines {
				fmt.Println(l)
			}
			return nil
		},
	}
}
