package config

import "sort"

// RunConfig captures the command-line execution mode for a single run.
// It is built once from flags and never mutated afterwards.
type RunConfig struct {
	skip      map[string]bool
	DryRun    bool
	Force     bool
	Uninstall bool
	Verbose   bool
}

// NewRunConfig builds a RunConfig from parsed flag values.
func NewRunConfig(dryRun, force, uninstall, verbose bool, skips []string) RunConfig {
	skip := make(map[string]bool, len(skips))
	for _, name := range skips {
		skip[name] = true
	}

	return RunConfig{
		skip:      skip,
		DryRun:    dryRun,
		Force:     force,
		Uninstall: uninstall,
		Verbose:   verbose,
	}
}

// Skipped reports whether the named unit was excluded with --skip.
func (rc RunConfig) Skipped(name string) bool {
	return rc.skip[name]
}

// SkipList returns the skip set as a sorted slice, for logging.
func (rc RunConfig) SkipList() []string {
	names := make([]string, 0, len(rc.skip))
	for name := range rc.skip {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
