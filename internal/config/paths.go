package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds every resolved beehive state file location. Use ResolvePaths
// to populate it from BEEHIVE_HOME / individual BEEHIVE_*_PATH overrides.
type Paths struct {
	Home       string // ~/.beehive or BEEHIVE_HOME
	ConfigPath string // $Home/config.toml or BEEHIVE_CONFIG_PATH
	DBPath     string // $Home/beehive.db or BEEHIVE_DB_PATH
	PIDPath    string // $Home/beehive-dashd.pid or BEEHIVE_PID_PATH
	LogPath    string // $Home/beehive-dashd.log or BEEHIVE_LOG_PATH
}

// ResolvePaths returns every beehive path, honoring env var overrides.
//
// BEEHIVE_HOME sets the base directory for all state (default ~/.beehive).
// BEEHIVE_CONFIG_PATH, BEEHIVE_DB_PATH, BEEHIVE_PID_PATH, BEEHIVE_LOG_PATH
// each override one specific path, taking precedence over both the default
// and the BEEHIVE_HOME-relative default.
func ResolvePaths() (*Paths, error) {
	home, err := resolveHome()
	if err != nil {
		return nil, err
	}
	return &Paths{
		Home:       home,
		ConfigPath: resolveWithEnv("BEEHIVE_CONFIG_PATH", home, "config.toml"),
		DBPath:     resolveWithEnv("BEEHIVE_DB_PATH", home, "beehive.db"),
		PIDPath:    resolveWithEnv("BEEHIVE_PID_PATH", home, "beehive-dashd.pid"),
		LogPath:    resolveWithEnv("BEEHIVE_LOG_PATH", home, "beehive-dashd.log"),
	}, nil
}

func resolveHome() (string, error) {
	if v := os.Getenv("BEEHIVE_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".beehive"), nil
}

func resolveWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}
