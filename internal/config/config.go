// Package config loads and merges beehive's configuration: a TOML or YAML
// file, BEEHIVE_-prefixed environment overrides, and (applied last, by the
// caller) CLI flags. It also exposes a watcher that reloads the file when it
// changes and hands the new Config to a callback; applying it is up to the
// caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/beehive-swarm/beehive/internal/beename"
)

// Config is beehive's fully-merged configuration.
type Config struct {
	Session string `toml:"session" yaml:"session"`

	// PaneMapping binds each bee to a multiplexer pane, keyed by bee name
	// ("queen", "developer", "qa", "analyst").
	PaneMapping map[string]string `toml:"pane_mapping" yaml:"pane_mapping"`

	// Command is the launch command for each bee's hosted process, keyed by
	// bee name, used by `beehive init`.
	Command map[string]string `toml:"command" yaml:"command"`

	LogLevel string `toml:"log_level" yaml:"log_level"`

	InjectorConcurrency int `toml:"injector_concurrency" yaml:"injector_concurrency"`
	PasteThresholdBytes int `toml:"paste_threshold_bytes" yaml:"paste_threshold_bytes"`

	TickIntervalSeconds    int    `toml:"tick_interval_seconds" yaml:"tick_interval_seconds"`
	TIdleSeconds           int    `toml:"t_idle_seconds" yaml:"t_idle_seconds"`
	TSilentSeconds         int    `toml:"t_silent_seconds" yaml:"t_silent_seconds"`
	RemindIntervalSeconds  int    `toml:"remind_interval_seconds" yaml:"remind_interval_seconds"`
	RemindCron             string `toml:"remind_cron" yaml:"remind_cron"`
	ViolationWindowSeconds int    `toml:"violation_window_seconds" yaml:"violation_window_seconds"`
	ObserverBee            string `toml:"observer_bee" yaml:"observer_bee"`
	AckPattern             string `toml:"ack_pattern" yaml:"ack_pattern"`
	AckTimeoutSeconds      int    `toml:"ack_timeout_seconds" yaml:"ack_timeout_seconds"`
}

// Default returns beehive's documented defaults, prior to file/env/flag
// overrides.
func Default() *Config {
	return &Config{
		Session:                "beehive",
		PaneMapping:            map[string]string{},
		Command:                map[string]string{},
		LogLevel:               "info",
		InjectorConcurrency:    4,
		PasteThresholdBytes:    2000,
		TickIntervalSeconds:    5,
		TIdleSeconds:           120,
		TSilentSeconds:         600,
		RemindIntervalSeconds:  300,
		ViolationWindowSeconds: 60,
		ObserverBee:            "queen",
		AckPattern:             "READY",
		AckTimeoutSeconds:      60,
	}
}

// Load reads and merges configuration from path (TOML if its extension is
// ".toml", YAML for ".yaml"/".yml"), then applies BEEHIVE_-prefixed
// environment overrides. A missing file is not an error: Load falls back to
// Default and still applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return toml.Unmarshal(data, cfg)
	}
}

// applyEnvOverrides mutates cfg in place from BEEHIVE_-prefixed env vars,
// grounded in the teacher's ORO_HOME-style override ladder: a specific env
// var always wins over whatever the file set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BEEHIVE_SESSION"); v != "" {
		cfg.Session = v
	}
	if v := os.Getenv("BEEHIVE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BEEHIVE_OBSERVER_BEE"); v != "" {
		cfg.ObserverBee = v
	}
	if v := os.Getenv("BEEHIVE_ACK_PATTERN"); v != "" {
		cfg.AckPattern = v
	}
	if v := os.Getenv("BEEHIVE_INJECTOR_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.InjectorConcurrency = n
		}
	}
	if v := os.Getenv("BEEHIVE_TICK_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TickIntervalSeconds = n
		}
	}
}

// Validate checks internal consistency beyond what the type system enforces:
// every pane_mapping key must be a real bee, no pane may be bound to two
// bees, and injector_concurrency must be positive. A bee without a pane is
// not an error here.
func (c *Config) Validate() error {
	seenPanes := map[string]string{}
	for bee, paneID := range c.PaneMapping {
		if !beename.IsBee(beename.Name(bee)) {
			return &beename.InvalidNameError{Name: beename.Name(bee), Why: "pane_mapping keys must be real bees"}
		}
		if owner, dup := seenPanes[paneID]; dup {
			return fmt.Errorf("config: pane %q bound to both %q and %q", paneID, owner, bee)
		}
		seenPanes[paneID] = bee
	}
	if c.InjectorConcurrency <= 0 {
		return fmt.Errorf("config: injector_concurrency must be positive, got %d", c.InjectorConcurrency)
	}
	return nil
}

// TickInterval, TIdle, TSilent, RemindInterval, ViolationWindow, and
// AckTimeout convert the config's integer-second fields into durations for
// internal/supervisor.Config.
func (c *Config) TickInterval() time.Duration     { return time.Duration(c.TickIntervalSeconds) * time.Second }
func (c *Config) TIdle() time.Duration             { return time.Duration(c.TIdleSeconds) * time.Second }
func (c *Config) TSilent() time.Duration           { return time.Duration(c.TSilentSeconds) * time.Second }
func (c *Config) RemindInterval() time.Duration    { return time.Duration(c.RemindIntervalSeconds) * time.Second }
func (c *Config) ViolationWindow() time.Duration   { return time.Duration(c.ViolationWindowSeconds) * time.Second }
func (c *Config) AckTimeout() time.Duration        { return time.Duration(c.AckTimeoutSeconds) * time.Second }
