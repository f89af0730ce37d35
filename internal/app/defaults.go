package app

import (
	"fmt"
	"os"
	"path/filepath"

	"si-go/internal/cache"
	"si-go/internal/config"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - SI_CONFIG_PATH: config file location (default: ~/.config/si.toml)
//   - SI_HOME: base directory for si data (default: ~/.local/share/si)
//
// The cache file itself defaults to ~/.small-improvements-cache.
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"cache_path":  filepath.Join(homeDir, cache.DefaultFileName),
	}, nil
}

// LoadConfig reads the config file named by the defaults. A missing file
// yields the default config.
func LoadConfig() (*config.Config, map[string]string, error) {
	defaults, err := GetDefaults()
	if err != nil {
		return nil, nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.Load(defaults["config_path"], DefaultConfig(defaults))
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults, nil
}

// DefaultConfig builds the config used when no file exists.
func DefaultConfig(defaults map[string]string) *config.Config {
	return config.NewConfig(defaults["base_dir"], defaults["cache_path"])
}

// getConfigPath returns the config file path, checking SI_CONFIG_PATH env var first,
// then falling back to the default ~/.config/si.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("SI_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "si.toml"), nil
}

// getBaseDir returns the base directory for si data, checking SI_HOME env var first,
// then falling back to the XDG default ~/.local/share/si.
func getBaseDir() (string, error) {
	if path := os.Getenv("SI_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "si"), nil
}
