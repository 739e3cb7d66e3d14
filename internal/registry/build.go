package registry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dotstrap/dotstrap/internal/config"
	"github.com/dotstrap/dotstrap/internal/platform"
)

// BuildOptions carries the collaborators the built units close over.
// The dotfiles link step is injected so the registry does not depend on
// the linker package.
type BuildOptions struct {
	Runner *Runner
	Link   func(ctx context.Context) error
	Unlink func(ctx context.Context) error
	// Linked is the link step's presence predicate: true when every
	// configured symlink is already in place.
	Linked        func(ctx context.Context) (bool, error)
	LinkPreview   string
	UnlinkPreview string
}

// Build resolves the configured unit table for the detected platform.
// Each unit's actions are bound exactly once here; units with no install
// method for the platform get a nil Install and are reported as not
// applicable instead of branching again at run time.
func Build(cfg *config.Config, tag platform.Tag, opts BuildOptions) Registry {
	reg := make(Registry, 0, len(cfg.Units))

	for _, spec := range cfg.Units {
		u := Unit{
			Name:        spec.Name,
			Description: spec.Description,
			Skippable:   spec.IsSkippable(),
			LinkStep:    spec.Link,
		}

		if spec.Link {
			u.Present = linkPresence(opts)
			u.Install = wrapLink(spec.Name, opts.Link)
			u.Uninstall = opts.Unlink
			u.Preview = opts.LinkPreview
			u.UninstallPreview = opts.UnlinkPreview
			reg = append(reg, u)

			continue
		}

		u.Present = presenceCheck(spec.Check, tag, opts.Runner)
		u.Install, u.Preview = installAction(spec.Name, spec.Install, tag, opts.Runner)
		u.Uninstall, u.UninstallPreview = uninstallAction(spec.Uninstall, tag, opts.Runner)

		reg = append(reg, u)
	}

	return reg
}

// presenceCheck builds the unit's presence predicate. A check that cannot
// run wraps ErrPresenceCheck; callers treat that as "not present".
func presenceCheck(check config.CheckSpec, tag platform.Tag, r *Runner) func(ctx context.Context) (bool, error) {
	switch {
	case check.Command != "":
		cmd := check.Command
		return func(context.Context) (bool, error) {
			return platform.IsCommandAvailable(cmd), nil
		}

	case check.Path != "":
		path := check.Path
		return func(context.Context) (bool, error) {
			_, err := os.Lstat(r.Expand(path))
			if err == nil {
				return true, nil
			}

			if os.IsNotExist(err) {
				return false, nil
			}

			return false, fmt.Errorf("%w: %v", ErrPresenceCheck, err)
		}

	case len(check.Package) > 0:
		pkg, ok := config.LookupForTag(check.Package, tag)
		if !ok {
			return func(context.Context) (bool, error) { return false, nil }
		}

		return func(ctx context.Context) (bool, error) {
			return r.PackageInstalled(ctx, pkg), nil
		}
	}

	// No predicate configured: never present, install always runs.
	return func(context.Context) (bool, error) { return false, nil }
}

// linkPresence wires the injected fully-linked predicate, which only the
// linker can decide. Absent one the step always runs (it is idempotent).
func linkPresence(opts BuildOptions) func(ctx context.Context) (bool, error) {
	if opts.Linked != nil {
		return opts.Linked
	}

	return func(context.Context) (bool, error) { return false, nil }
}

type step struct {
	run     func(ctx context.Context) error
	preview string
	method  string
}

// wrapLink tags link step failures with the owning unit.
func wrapLink(unit string, link func(ctx context.Context) error) func(ctx context.Context) error {
	if link == nil {
		return nil
	}

	return func(ctx context.Context) error {
		if err := link(ctx); err != nil {
			return NewInstallError(unit, "link", err)
		}

		return nil
	}
}

// installAction composes the unit's install steps for the platform, in the
// fixed order packages, git, url, command. Returns a nil action when no
// method applies to the tag. Step failures come back as *InstallError.
func installAction(unit string, spec config.InstallSpec, tag platform.Tag, r *Runner) (func(ctx context.Context) error, string) {
	var steps []step

	if pkgs, ok := config.LookupForTag(spec.Packages, tag); ok && len(pkgs) > 0 {
		steps = append(steps, step{
			run:     func(ctx context.Context) error { return r.InstallPackages(ctx, pkgs) },
			preview: fmt.Sprintf("install %s via %s", strings.Join(pkgs, ", "), r.Manager),
			method:  r.Manager,
		})
	}

	if spec.Git != nil {
		if target, ok := config.LookupForTag(spec.Git.Targets, tag); ok {
			git := spec.Git
			steps = append(steps, step{
				run:     func(ctx context.Context) error { return r.GitClone(ctx, git, target) },
				preview: fmt.Sprintf("clone %s into %s", git.URL, target),
				method:  "git",
			})
		}
	}

	if url, ok := config.LookupForTag(spec.URL, tag); ok {
		steps = append(steps, step{
			run:     func(ctx context.Context) error { return r.DownloadAndRun(ctx, url) },
			preview: fmt.Sprintf("download %s and run install command", url.URL),
			method:  "url",
		})
	}

	if cmd, ok := config.LookupForTag(spec.Command, tag); ok {
		steps = append(steps, step{
			run:     func(ctx context.Context) error { return r.RunShell(ctx, cmd) },
			preview: fmt.Sprintf("run: %s", cmd),
			method:  "command",
		})
	}

	return compose(unit, steps)
}

// uninstallAction composes removal steps: package removal, path deletion,
// then the uninstall command. All steps tolerate "nothing to remove".
func uninstallAction(spec config.UninstallSpec, tag platform.Tag, r *Runner) (func(ctx context.Context) error, string) {
	var steps []step

	if pkgs, ok := config.LookupForTag(spec.Packages, tag); ok && len(pkgs) > 0 {
		steps = append(steps, step{
			run:     func(ctx context.Context) error { return r.RemovePackages(ctx, pkgs) },
			preview: fmt.Sprintf("remove %s via %s", strings.Join(pkgs, ", "), r.Manager),
		})
	}

	if len(spec.Paths) > 0 {
		paths := spec.Paths
		steps = append(steps, step{
			run:     func(ctx context.Context) error { return r.RemovePaths(ctx, paths) },
			preview: fmt.Sprintf("remove %s", strings.Join(paths, ", ")),
		})
	}

	if cmd, ok := config.LookupForTag(spec.Command, tag); ok {
		steps = append(steps, step{
			run:     func(ctx context.Context) error { return r.RunShell(ctx, cmd) },
			preview: fmt.Sprintf("run: %s", cmd),
		})
	}

	return compose("", steps)
}

// compose folds steps into a single action that stops at the first failure.
// Steps carrying a method get their errors wrapped in *InstallError.
func compose(unit string, steps []step) (func(ctx context.Context) error, string) {
	if len(steps) == 0 {
		return nil, ""
	}

	previews := make([]string, 0, len(steps))
	for _, s := range steps {
		previews = append(previews, s.preview)
	}

	action := func(ctx context.Context) error {
		for _, s := range steps {
			if err := s.run(ctx); err != nil {
				if s.method != "" {
					return NewInstallError(unit, s.method, err)
				}

				return err
			}
		}

		return nil
	}

	return action, strings.Join(previews, "; ")
}
