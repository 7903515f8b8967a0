// Command beehive-dashd runs the Supervisor tick loop as a background
// daemon: role-reminder duties, liveness classification, protocol-violation
// detection, and expired-message reaping.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/beehive-swarm/beehive/internal/buildinfo"
	"github.com/beehive-swarm/beehive/internal/config"
	"github.com/beehive-swarm/beehive/internal/roleprompt"
	"github.com/beehive-swarm/beehive/internal/supervisor"
	"github.com/beehive-swarm/beehive/pkg/hive"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "beehive-dashd:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flagConfigPath()

	paths, err := config.ResolvePaths()
	if err != nil {
		return err
	}
	if configPath == "" {
		configPath = paths.ConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	log.Info("beehive-dashd starting", "version", buildinfo.String(), "session", cfg.Session)

	if err := supervisor.WritePIDFile(paths.PIDPath, os.Getpid()); err != nil {
		return err
	}

	ctx, cleanup := supervisor.SetupSignalHandler(context.Background(), paths.PIDPath)
	defer cleanup()

	prompts := roleprompt.New(filepath.Join(paths.Home, "roles"))
	h, err := hive.Open(ctx, cfg, paths.DBPath, hive.Options{
		Log:         log,
		RolePrompts: prompts,
	})
	if err != nil {
		return fmt.Errorf("open hive: %w", err)
	}
	defer h.Close()

	watcher, err := config.NewWatcher(configPath, log)
	if err == nil {
		go watcher.Run(ctx, func(newCfg *config.Config) {
			log.Info("config reloaded")
		})
	} else {
		log.Warn("config hot-reload unavailable", "error", err)
	}

	h.Supervisor().Run(ctx)
	log.Info("beehive-dashd stopped")
	return nil
}

func flagConfigPath() string {
	for i, a := range os.Args {
		if a == "--config" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
	}
	return ""
}
