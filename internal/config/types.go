package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dotstrap/dotstrap/internal/platform"
)

// Platform family keys accepted wherever a map is keyed by platform.
// An exact tag ("macos-arm64", "wsl") always wins over its family
// ("macos", "linux"), which wins over "any".
const (
	FamilyMac   = "macos"
	FamilyLinux = "linux"
	FamilyAny   = "any"
)

// LookupForTag resolves a platform-keyed map entry for a tag, trying the
// exact tag first, then the family, then "any".
func LookupForTag[V any](m map[string]V, tag platform.Tag) (V, bool) {
	if v, ok := m[string(tag)]; ok {
		return v, true
	}

	if tag.IsMac() {
		if v, ok := m[FamilyMac]; ok {
			return v, true
		}
	}

	if tag.IsLinux() {
		if v, ok := m[FamilyLinux]; ok {
			return v, true
		}
	}

	v, ok := m[FamilyAny]

	return v, ok
}

// UnitSpec declares one installable unit. Declaration order in the config
// is significant: later units may assume earlier ones succeeded.
type UnitSpec struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Check       CheckSpec      `yaml:"check,omitempty"`
	Install     InstallSpec    `yaml:"install,omitempty"`
	Uninstall   UninstallSpec  `yaml:"uninstall,omitempty"`
	Link        bool           `yaml:"link,omitempty"`
	Skippable   *bool          `yaml:"skippable,omitempty"`
}

// IsSkippable reports whether the unit may be excluded with --skip.
// Units are skippable unless the config says otherwise.
func (u UnitSpec) IsSkippable() bool {
	return u.Skippable == nil || *u.Skippable
}

// CheckSpec is a presence-check predicate: a command to look up in PATH,
// a path that must exist, or a per-platform package query.
type CheckSpec struct {
	Command string            `yaml:"command,omitempty"`
	Path    string            `yaml:"path,omitempty"`
	Package map[string]string `yaml:"package,omitempty"`
}

// UnmarshalYAML accepts either a bare string (shorthand for a command
// lookup) or the full object form.
func (c *CheckSpec) UnmarshalYAML(node *yaml.Node) error {
	var command string
	if err := node.Decode(&command); err == nil {
		c.Command = command
		return nil
	}

	type checkAlias CheckSpec

	var alias checkAlias
	if err := node.Decode(&alias); err != nil {
		return fmt.Errorf("decoding check: expected string or object: %w", err)
	}

	*c = CheckSpec(alias)

	return nil
}

// IsZero reports whether no predicate was configured.
func (c CheckSpec) IsZero() bool {
	return c.Command == "" && c.Path == "" && len(c.Package) == 0
}

// InstallSpec declares how a unit is installed, keyed by platform where
// the methods differ. A unit may combine methods; they are applied in the
// order packages, git, url, command.
type InstallSpec struct {
	Packages map[string][]string `yaml:"packages,omitempty"`
	Git      *GitSpec            `yaml:"git,omitempty"`
	URL      map[string]URLSpec  `yaml:"url,omitempty"`
	Command  map[string]string   `yaml:"command,omitempty"`
}

// IsZero reports whether no install method was configured.
func (s InstallSpec) IsZero() bool {
	return len(s.Packages) == 0 && s.Git == nil && len(s.URL) == 0 && len(s.Command) == 0
}

// GitSpec declares a repository clone. URL is tried first (typically SSH);
// when it fails and HTTPSURL is set, the clone is retried over HTTPS.
type GitSpec struct {
	URL      string            `yaml:"url"`
	HTTPSURL string            `yaml:"https_url,omitempty"`
	Branch   string            `yaml:"branch,omitempty"`
	Depth    int               `yaml:"depth,omitempty"`
	Targets  map[string]string `yaml:"targets"`
}

// URLSpec declares a download-and-run installation. MinSize is the byte
// floor under which the downloaded artifact is rejected as corrupt or
// incomplete; zero means the package default applies. Use {file} in
// Command as a placeholder for the downloaded file path.
type URLSpec struct {
	URL     string `yaml:"url"`
	Command string `yaml:"command"`
	MinSize int64  `yaml:"min_size,omitempty"`
}

// UninstallSpec declares how a unit is removed: per-platform package
// removal, paths to delete, or a shell command. "Nothing to remove" is
// success.
type UninstallSpec struct {
	Packages map[string][]string `yaml:"packages,omitempty"`
	Paths    []string            `yaml:"paths,omitempty"`
	Command  map[string]string   `yaml:"command,omitempty"`
}

// LinkPackage maps one repository subtree to home-directory targets,
// stow-style. Source is relative to the config source root. For directory
// targets the whole source directory is symlinked; for file targets the
// like-named file under Source is linked.
type LinkPackage struct {
	Package string   `yaml:"package"`
	Source  string   `yaml:"source"`
	Targets []string `yaml:"targets"`
}
