// Package config provides configuration management for dotstrap.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AppConfig is the minimal configuration stored in ~/.config/dotstrap/
// It only contains the path to the dotfiles repository
type AppConfig struct {
	// RepoDir is the path to the dotfiles repository
	RepoDir string `yaml:"repo_dir"`
}

const (
	appConfigDir   = ".config/dotstrap"
	appConfigFile  = "config.yaml"
	repoConfigFile = "dotstrap.yaml"
)

// LoadAppConfig loads the app configuration from ~/.config/dotstrap/config.yaml
func LoadAppConfig() (*AppConfig, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	configPath := filepath.Join(home, appConfigDir, appConfigFile)

	data, err := os.ReadFile(configPath) //nolint:gosec // path is from user home dir, intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s - run 'dotstrap init <path>' or create it manually", ErrNoAppConfig, configPath)
		}

		return nil, fmt.Errorf("reading app config: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing app config: %w", err)
	}

	if cfg.RepoDir == "" {
		return nil, fmt.Errorf("repo_dir not set in %s", configPath)
	}

	// Expand ~ in repo_dir
	cfg.RepoDir = ExpandPath(cfg.RepoDir, nil)

	// Verify the directory exists
	if _, err := os.Stat(cfg.RepoDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("dotfiles repository does not exist: %s", cfg.RepoDir)
	}

	return &cfg, nil
}

// SaveAppConfig saves the app configuration to ~/.config/dotstrap/config.yaml
func SaveAppConfig(cfg *AppConfig) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("getting home directory: %w", err)
	}

	configDir := filepath.Join(home, appConfigDir)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(configDir, appConfigFile)

	data, err := marshalYAML(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Add a header comment
	content := fmt.Sprintf("# dotstrap app configuration\n# This file only stores the path to your dotfiles repository\n\n%s", string(data))

	// Use 0600 permissions to restrict access to owner only
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// RepoConfigPath returns the path to the repository's dotstrap.yaml
func (a *AppConfig) RepoConfigPath() string {
	return filepath.Join(a.RepoDir, repoConfigFile)
}

// AppConfigPath returns the path where the app config is stored.
// Returns an empty string if the home directory cannot be determined.
func AppConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, appConfigDir, appConfigFile)
}

// StateDir returns the directory where dotstrap keeps its run journal.
func StateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, appConfigDir)
}
