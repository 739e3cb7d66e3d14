// Package linker applies the stow-style symlink farm: repository subtrees
// are linked into the home directory package by package, backing up
// anything already in the way.
package linker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dotstrap/dotstrap/internal/config"
)

// DirPerms are the default permissions for created directories (rwxr-x---)
const DirPerms os.FileMode = 0750

// backupTimestampLayout is the suffix format for conflict backups.
const backupTimestampLayout = "20060102-150405"

// Status is the per-target result classification.
type Status string

// Per-target statuses.
const (
	// StatusLinked means a new symlink was created
	StatusLinked Status = "linked"
	// StatusNoop means the target already pointed at the source
	StatusNoop Status = "noop"
	// StatusBackedUp means an existing file was preserved as a timestamped
	// backup before linking
	StatusBackedUp Status = "backed-up"
	// StatusFailed means this target could not be linked; other targets in
	// the same package are unaffected
	StatusFailed Status = "failed"
	// StatusWouldLink is the dry-run preview of a link
	StatusWouldLink Status = "would-link"
	// StatusWouldUnlink is the dry-run preview of a removal
	StatusWouldUnlink Status = "would-unlink"
	// StatusUnlinked means a managed symlink was removed
	StatusUnlinked Status = "unlinked"
)

// Result is the outcome for a single target path.
type Result struct {
	Err     error
	Package string
	Target  string
	Source  string
	Backup  string
	Status  Status
}

// Linker owns the backup-then-symlink sequence. For every target it leaves
// the filesystem in one of exactly two end states: symlinked-to-source, or
// original-file-preserved-as-backup.
type Linker struct {
	logger *slog.Logger
	// Expand resolves ~, env vars and template expressions in paths.
	Expand func(string) string
	// Now stamps conflict backups; swappable for tests.
	Now func() time.Time
	// SourceRoot is the expanded root of the dotfiles repository.
	SourceRoot string
	// OwnedRoots are directories the tool itself manages (git unit
	// targets). Only these may be force-deleted instead of backed up.
	OwnedRoots []string
	DryRun     bool
	Force      bool
	Verbose    bool
}

// New creates a Linker rooted at the expanded repository directory.
func New(sourceRoot string, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.Default()
	}

	return &Linker{
		logger:     logger,
		Expand:     func(p string) string { return config.ExpandPath(p, nil) },
		Now:        time.Now,
		SourceRoot: sourceRoot,
	}
}

// sourceFor resolves the repository file backing a target: the like-named
// entry under the package's source directory.
func (l *Linker) sourceFor(spec config.LinkPackage, target string) string {
	return filepath.Join(l.SourceRoot, spec.Source, filepath.Base(target))
}

// AllLinked reports whether every target of every package already points
// at its repository source. A fully linked machine has nothing left to do,
// so this doubles as the presence check for the link step.
func (l *Linker) AllLinked(pkgs []config.LinkPackage) bool {
	for _, pkg := range pkgs {
		for _, rawTarget := range pkg.Targets {
			target := l.Expand(rawTarget)
			if !symlinkPointsTo(target, l.sourceFor(pkg, target)) {
				return false
			}
		}
	}

	return true
}

// Link applies one package's link spec. A conflict on one target never
// blocks the remaining targets.
func (l *Linker) Link(ctx context.Context, spec config.LinkPackage) []Result {
	results := make([]Result, 0, len(spec.Targets))

	for _, target := range spec.Targets {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Package: spec.Package, Target: target, Status: StatusFailed, Err: err})
			continue
		}

		results = append(results, l.linkTarget(spec, target))
	}

	return results
}

func (l *Linker) linkTarget(spec config.LinkPackage, rawTarget string) Result {
	target := l.Expand(rawTarget)
	source := l.sourceFor(spec, target)

	res := Result{Package: spec.Package, Target: target, Source: source}

	if !pathExists(source) {
		res.Status = StatusFailed
		res.Err = NewPathError("link", source, ErrSourceMissing)

		return res
	}

	// Already pointing at the right place: idempotent no-op.
	if symlinkPointsTo(target, source) {
		l.logger.Debug("already a symlink", slog.String("path", target))
		res.Status = StatusNoop

		return res
	}

	if l.DryRun {
		res.Status = StatusWouldLink

		return res
	}

	// A symlink to the wrong place is ours to correct; user data only ever
	// lives in regular files and directories.
	if isSymlink(target) {
		l.logger.Info("removing incorrect symlink", slog.String("path", target))

		if err := os.Remove(target); err != nil {
			res.Status = StatusFailed
			res.Err = NewPathError("link", target, fmt.Errorf("removing incorrect symlink: %w", err))

			return res
		}
	}

	if pathExists(target) {
		backedUp, err := l.clearTarget(target, source)
		if err != nil {
			res.Status = StatusFailed
			res.Err = err

			return res
		}

		res.Backup = backedUp
	}

	parentDir := filepath.Dir(target)
	if !pathExists(parentDir) {
		l.logger.Info("creating directory", slog.String("path", parentDir))

		if err := os.MkdirAll(parentDir, DirPerms); err != nil {
			res.Status = StatusFailed
			res.Err = NewPathError("link", parentDir, fmt.Errorf("creating parent: %w", err))

			return res
		}
	}

	l.logger.Info("creating symlink",
		slog.String("target", target),
		slog.String("source", source))

	if err := os.Symlink(source, target); err != nil {
		res.Status = StatusFailed
		res.Err = NewPathError("link", target, fmt.Errorf("%w: %v", ErrSymlinkFailed, err))

		return res
	}

	if res.Backup != "" {
		res.Status = StatusBackedUp
	} else {
		res.Status = StatusLinked
	}

	return res
}

// clearTarget gets an existing non-symlink target out of the way. Owned
// directories may be force-deleted outright; anything else is renamed to a
// timestamped backup, never silently overwritten.
func (l *Linker) clearTarget(target, source string) (string, error) {
	if l.Force && l.owned(target) {
		l.logger.Info("force-removing managed directory", slog.String("path", target))

		if err := os.RemoveAll(target); err != nil {
			return "", NewPathError("link", target, fmt.Errorf("removing managed directory: %w", err))
		}

		return "", nil
	}

	if l.Verbose {
		l.logConflictDiff(target, source)
	}

	backup := fmt.Sprintf("%s.bak.%s", target, l.Now().Format(backupTimestampLayout))

	l.logger.Info("backing up existing target",
		slog.String("from", target),
		slog.String("to", backup))

	if err := os.Rename(target, backup); err != nil {
		return "", NewPathError("link", target, fmt.Errorf("%w: %v", ErrBackupFailed, err))
	}

	return backup, nil
}

// owned reports whether the path is a directory the tool itself manages:
// equal to or under an owned root. Arbitrary pre-existing user files are
// never owned.
func (l *Linker) owned(path string) bool {
	for _, root := range l.OwnedRoots {
		root = l.Expand(root)
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}

	return false
}

// Unlink removes the package's symlinks. Only symlinks pointing into the
// source tree are touched; a missing target is nothing to remove.
func (l *Linker) Unlink(ctx context.Context, spec config.LinkPackage) []Result {
	results := make([]Result, 0, len(spec.Targets))

	for _, target := range spec.Targets {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Package: spec.Package, Target: target, Status: StatusFailed, Err: err})
			continue
		}

		results = append(results, l.unlinkTarget(spec, target))
	}

	return results
}

func (l *Linker) unlinkTarget(spec config.LinkPackage, rawTarget string) Result {
	target := l.Expand(rawTarget)
	res := Result{Package: spec.Package, Target: target}

	if !pathExists(target) {
		res.Status = StatusNoop

		return res
	}

	if !isSymlink(target) || !l.pointsIntoSource(target) {
		l.logger.Debug("leaving unmanaged target in place", slog.String("path", target))
		res.Status = StatusNoop

		return res
	}

	if l.DryRun {
		res.Status = StatusWouldUnlink

		return res
	}

	l.logger.Info("removing symlink", slog.String("path", target))

	if err := os.Remove(target); err != nil {
		res.Status = StatusFailed
		res.Err = NewPathError("unlink", target, err)

		return res
	}

	res.Status = StatusUnlinked

	return res
}

func (l *Linker) pointsIntoSource(target string) bool {
	link, err := os.Readlink(target)
	if err != nil {
		return false
	}

	return link == l.SourceRoot || strings.HasPrefix(link, l.SourceRoot+string(filepath.Separator))
}

// ResultErrors joins the failures from a set of results, one error per
// failed target.
func ResultErrors(results []Result) error {
	var errs []error
	for _, res := range results {
		if res.Status == StatusFailed && res.Err != nil {
			errs = append(errs, res.Err)
		}
	}

	return errors.Join(errs...)
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeSymlink != 0
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// symlinkPointsTo checks if a symlink at 'path' points to 'expectedTarget'
func symlinkPointsTo(path, expectedTarget string) bool {
	if !isSymlink(path) {
		return false
	}

	link, err := os.Readlink(path)
	if err != nil {
		return false
	}

	return link == expectedTarget
}
