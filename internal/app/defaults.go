package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - CFS_CONFIG_PATH: config file location (default: ~/.config/cfs.toml)
//   - CFS_HOME: base directory for cfs data (default: ~/.local/share/cfs)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking CFS_CONFIG_PATH env var first,
// then falling back to the default ~/.config/cfs.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("CFS_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "cfs.toml"), nil
}

// getBaseDir returns the base directory for cfs data, checking CFS_HOME env var first,
// then falling back to the XDG default ~/.local/share/cfs.
func getBaseDir() (string, error) {
	if path := os.Getenv("CFS_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "cfs"), nil
}
