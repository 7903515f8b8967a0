// Package main implements the beehive-dash read-only dashboard.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/beehive-swarm/beehive/internal/config"
	"github.com/beehive-swarm/beehive/pkg/hive"
)

func main() {
	paths, err := config.ResolvePaths()
	if err != nil {
		fmt.Fprintln(os.Stderr, "beehive-dash:", err)
		os.Exit(1)
	}
	cfg, err := config.Load(paths.ConfigPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "beehive-dash:", err)
		os.Exit(1)
	}

	h, err := hive.Open(context.Background(), cfg, paths.DBPath, hive.Options{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "beehive-dash: open hive:", err)
		os.Exit(1)
	}
	defer h.Close()

	p := tea.NewProgram(newModel(h), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "beehive-dash: %v\n", err)
		os.Exit(1)
	}
}
