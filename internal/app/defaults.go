package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults holds the default locations wombat uses when nothing else is
// configured.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - WOMBAT_CONFIG_PATH: config file location (default: ~/.config/wombat.toml)
//   - WOMBAT_HOME: base directory for wombat data (default: ~/.local/share/wombat)
func GetDefaults() (*Defaults, error) {
	configPath, err := envOrHome("WOMBAT_CONFIG_PATH", ".config", "wombat.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := envOrHome("WOMBAT_HOME", ".local", "share", "wombat")
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

// envOrHome returns the value of env if set, otherwise the path made of
// elem under the user's home directory.
func envOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
