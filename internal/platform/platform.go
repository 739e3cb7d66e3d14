// Package platform handles platform detection and platform-specific
// behavior for macOS, Linux and WSL hosts.
package platform

import (
	"os"
	"os/exec"
	"os/user"
	"runtime"
	"strings"
	"sync"
)

// Tag identifies the host environment class. It drives every
// platform-conditional decision downstream; nothing else inspects
// runtime.GOOS directly.
type Tag string

const (
	// TagMacArm is macOS on Apple Silicon
	TagMacArm Tag = "macos-arm64"
	// TagMacIntel is macOS on Intel
	TagMacIntel Tag = "macos-x86_64"
	// TagLinux is native Linux
	TagLinux Tag = "linux"
	// TagWSL is Linux under Windows Subsystem for Linux
	TagWSL Tag = "wsl"
	// TagUnknown is any unrecognized host; runs proceed best-effort
	TagUnknown Tag = "unknown"
)

// IsMac reports whether the tag is either macOS variant.
func (t Tag) IsMac() bool {
	return t == TagMacArm || t == TagMacIntel
}

// IsLinux reports whether the tag is a Linux-family environment.
func (t Tag) IsLinux() bool {
	return t == TagLinux || t == TagWSL
}

// Platform holds the detected environment information.
type Platform struct {
	// EnvVars are extra variables injected into path expansion
	EnvVars  map[string]string
	Tag      Tag
	Distro   string
	Hostname string
	User     string
}

// Detect returns the current platform information. Detection never fails;
// anything unrecognized gets TagUnknown and empty fields.
func Detect() *Platform {
	p := &Platform{
		Tag:     detectTag(),
		EnvVars: map[string]string{},
	}

	if hostname, err := os.Hostname(); err == nil {
		p.Hostname = hostname
	}

	if u, err := user.Current(); err == nil {
		p.User = u.Username
	}

	if p.Tag.IsLinux() {
		p.Distro = detectDistro()
	}

	return p
}

func detectTag() Tag {
	switch runtime.GOOS {
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return TagMacArm
		}

		return TagMacIntel
	case "linux":
		if detectWSL() {
			return TagWSL
		}

		return TagLinux
	default:
		return TagUnknown
	}
}

// detectWSL checks /proc/version for the Microsoft kernel signature.
func detectWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}

	version := strings.ToLower(string(data))

	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")
}

// detectDistro reads the distribution ID from /etc/os-release.
func detectDistro() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return ""
	}

	for _, line := range strings.Split(string(data), "\n") {
		if value, ok := strings.CutPrefix(line, "ID="); ok {
			return strings.Trim(value, `"`)
		}
	}

	return ""
}

// WithTag returns a copy of the platform with the tag replaced.
func (p *Platform) WithTag(tag Tag) *Platform {
	clone := *p
	clone.Tag = tag

	return &clone
}

// WithHostname returns a copy of the platform with the hostname replaced.
func (p *Platform) WithHostname(hostname string) *Platform {
	clone := *p
	clone.Hostname = hostname

	return &clone
}

// WithDistro returns a copy of the platform with the distro replaced.
func (p *Platform) WithDistro(distro string) *Platform {
	clone := *p
	clone.Distro = distro

	return &clone
}

// IsCommandAvailable checks if a command exists in PATH.
func IsCommandAvailable(command string) bool {
	_, err := exec.LookPath(command)

	return err == nil
}

// KnownManagers lists every package manager the tool can drive, in
// detection priority order.
var KnownManagers = []string{"brew", "apt-get", "dnf", "pacman"}

var (
	availableOnce     sync.Once
	availableManagers []string
)

// DetectAvailableManagers returns the package managers present in PATH.
// The result is cached for the life of the process.
func DetectAvailableManagers() []string {
	availableOnce.Do(func() {
		for _, mgr := range KnownManagers {
			if IsCommandAvailable(mgr) {
				availableManagers = append(availableManagers, mgr)
			}
		}
	})

	return availableManagers
}

// ResetAvailableManagersCache clears the cached detection result. Tests
// mutate PATH and need re-detection.
func ResetAvailableManagersCache() {
	availableOnce = sync.Once{}
	availableManagers = nil
}

// PackageManagerFor returns the package manager for the tag: brew on
// macOS, the first available of apt-get/dnf/pacman on Linux. Unknown
// platforms have no manager and get "".
func PackageManagerFor(tag Tag) string {
	switch {
	case tag.IsMac():
		return "brew"
	case tag.IsLinux():
		for _, mgr := range DetectAvailableManagers() {
			if mgr != "brew" {
				return mgr
			}
		}

		return "apt-get"
	default:
		return ""
	}
}
