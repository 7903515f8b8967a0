package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/beehive-swarm/beehive/internal/beename"
	"github.com/beehive-swarm/beehive/internal/config"
	"github.com/beehive-swarm/beehive/internal/roleprompt"
	"github.com/beehive-swarm/beehive/pkg/hive"
)

// globalFlags holds the persistent flags every subcommand shares.
type globalFlags struct {
	configPath string
}

// senderIdentity resolves the bee identity a CLI invocation should act as:
// the command's --sender flag if set, otherwise the BEEHIVE_BEE_NAME
// environment variable a bee's own pane is launched with, otherwise the
// synthetic beekeeper sender for beekeeper-driven usage. A non-empty flag or
// env value must name a real bee; this is what lets a bee reply through the
// Message Bus as itself instead of always appearing to come from beekeeper.
func senderIdentity(flag string) (beename.Name, error) {
	if flag == "" {
		flag = os.Getenv("BEEHIVE_BEE_NAME")
	}
	if flag == "" {
		return beename.Beekeeper, nil
	}
	n := beename.Name(flag)
	if !beename.IsBee(n) {
		return "", &beename.InvalidNameError{Name: n, Why: "--sender must be a real bee"}
	}
	return n, nil
}

// resolveConfigPath returns the effective config file path: the --config
// flag if set, otherwise the BEEHIVE_*-aware default from internal/config.
func (g *globalFlags) resolveConfigPath() (string, error) {
	if g.configPath != "" {
		return g.configPath, nil
	}
	paths, err := config.ResolvePaths()
	if err != nil {
		return "", err
	}
	return paths.ConfigPath, nil
}

// loadConfig reads and validates the effective configuration.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	path, err := g.resolveConfigPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// openHive wires a Hive without a Supervisor; used by commands that only
// touch the Store/Bus/Task Engine (task, status, start-task, send, logs, stop).
func (g *globalFlags) openHive(ctx context.Context) (*hive.Hive, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	paths, err := config.ResolvePaths()
	if err != nil {
		return nil, err
	}
	return hive.Open(ctx, cfg, paths.DBPath, hive.Options{Log: slog.Default()})
}

// openHiveWithSupervisor wires a Hive including the Supervisor, loading role
// prompts from $Home/roles; used by init, inject-roles, and remind.
func (g *globalFlags) openHiveWithSupervisor(ctx context.Context) (*hive.Hive, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	paths, err := config.ResolvePaths()
	if err != nil {
		return nil, err
	}
	prompts := roleprompt.New(filepath.Join(paths.Home, "roles"))
	return hive.Open(ctx, cfg, paths.DBPath, hive.Options{
		Log:         slog.Default(),
		RolePrompts: prompts,
	})
}
