package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the repository configuration: the ordered unit table and the
// dotfile link packages. It is loaded once at startup and never mutated.
type Config struct {
	Version    int           `yaml:"version"`
	SourceRoot string        `yaml:"source_root,omitempty"`
	Units      []UnitSpec    `yaml:"units"`
	Links      []LinkPackage `yaml:"links,omitempty"`
}

// Load reads and parses the configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from user config, intentional
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("%w: %d (expected 1)", ErrUnsupportedVersion, cfg.Version)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks structural invariants: unit names are non-empty and
// unique, and link packages name a source directory and at least one target.
func (c *Config) Validate() error {
	verrs := &ValidationErrors{}

	seen := make(map[string]bool, len(c.Units))
	for _, u := range c.Units {
		if u.Name == "" {
			verrs.Add(fmt.Errorf("%w: unit with empty name", ErrInvalidConfig))
			continue
		}

		if seen[u.Name] {
			verrs.Add(fmt.Errorf("%w: duplicate unit name %q", ErrInvalidConfig, u.Name))
		}

		seen[u.Name] = true
	}

	for _, l := range c.Links {
		if l.Package == "" {
			verrs.Add(fmt.Errorf("%w: link package with empty name", ErrInvalidConfig))
		}

		if len(l.Targets) == 0 {
			verrs.Add(fmt.Errorf("%w: link package %q has no targets", ErrInvalidConfig, l.Package))
		}
	}

	if verrs.HasErrors() {
		return verrs
	}

	return nil
}

// UnitByName returns the unit spec with the given name, or false.
func (c *Config) UnitByName(name string) (UnitSpec, bool) {
	for _, u := range c.Units {
		if u.Name == name {
			return u, true
		}
	}

	return UnitSpec{}, false
}

// PathRenderer renders template strings. Used to inject the template engine
// into config path expansion without creating a circular dependency.
type PathRenderer interface {
	RenderString(name, tmplStr string) (string, error)
}

// ExpandPathWithTemplate first renders any Go template expressions in the path,
// then performs standard ~ and env var expansion. If the path contains no {{ delimiters,
// it falls back directly to ExpandPath for backward compatibility.
func ExpandPathWithTemplate(path string, envVars map[string]string, renderer PathRenderer) string {
	if path == "" || renderer == nil || !strings.Contains(path, "{{") {
		return ExpandPath(path, envVars)
	}

	rendered, err := renderer.RenderString("path", path)
	if err != nil {
		// Fall back to ExpandPath on template error
		return ExpandPath(path, envVars)
	}

	return ExpandPath(rendered, envVars)
}

// ExpandPath expands ~ and environment variables in a single path.
// This should be used when a path is needed for file operations.
// The path is kept unexpanded in the config to maintain portability.
func ExpandPath(path string, envVars map[string]string) string {
	if path == "" {
		return path
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	// Expand environment variables from the provided map
	for key, value := range envVars {
		path = strings.ReplaceAll(path, "$"+key, value)
	}

	// Also expand standard environment variables
	path = os.ExpandEnv(path)

	return path
}

// Save writes the config to the specified file path
func Save(cfg *Config, path string) error {
	data, err := marshalYAML(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Use 0600 permissions to restrict access to owner only,
	// as config may contain sensitive path information
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// marshalYAML encodes a value to YAML with 2-space indentation.
func marshalYAML(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
