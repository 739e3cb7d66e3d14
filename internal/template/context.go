// Package template provides path template rendering with a platform-aware context.
package template

import (
	"os"
	"strings"

	"github.com/dotstrap/dotstrap/internal/platform"
)

// Context holds platform-aware data available to all templates.
type Context struct {
	Platform string
	Distro   string
	Hostname string
	User     string
	Env      map[string]string
}

// NewContextFromPlatform creates a Context from platform detection results,
// merging platform EnvVars with the process environment.
func NewContextFromPlatform(p *platform.Platform) *Context {
	env := make(map[string]string)

	// Populate from os.Environ()
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	// Merge platform-specific env vars (override process env)
	for k, v := range p.EnvVars {
		env[k] = v
	}

	return &Context{
		Platform: string(p.Tag),
		Distro:   p.Distro,
		Hostname: p.Hostname,
		User:     p.User,
		Env:      env,
	}
}
