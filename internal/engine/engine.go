// Package engine drives the unit registry through an idempotent
// install/uninstall run: best-effort sweep, per-unit outcome recording,
// final error digest.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dotstrap/dotstrap/internal/config"
	"github.com/dotstrap/dotstrap/internal/platform"
	"github.com/dotstrap/dotstrap/internal/registry"
)

// ErrCanceled is returned when the user declines the uninstall confirmation.
var ErrCanceled = errors.New("canceled by user")

// PreflightError reports required external commands missing from PATH.
// Preflight failures abort the run before any unit is attempted.
type PreflightError struct {
	Missing []string
}

func (e *PreflightError) Error() string {
	return fmt.Sprintf("missing required commands: %s", strings.Join(e.Missing, ", "))
}

// Preflight verifies the hard external requirements: git, curl, and the
// platform package manager. An unknown platform has no manager requirement;
// the run proceeds best-effort and units degrade to "not applicable".
func Preflight(tag platform.Tag) error {
	required := []string{"git", "curl"}
	if mgr := platform.PackageManagerFor(tag); mgr != "" {
		required = append(required, mgr)
	}

	var missing []string
	for _, cmd := range required {
		if !platform.IsCommandAvailable(cmd) {
			missing = append(missing, cmd)
		}
	}

	if len(missing) > 0 {
		return &PreflightError{Missing: missing}
	}

	return nil
}

// Confirmer obtains a blocking yes/no answer before destructive actions.
type Confirmer interface {
	Confirm(prompt string, defaultYes bool) (bool, error)
}

// Engine walks the registry in declaration order applying the uniform
// idempotent-install policy per unit. A single unit's failure is never
// fatal to the run.
type Engine struct {
	logger   *slog.Logger
	confirm  Confirmer
	Registry registry.Registry
	Config   config.RunConfig
	Tag      platform.Tag
}

// New creates an Engine over the resolved registry.
func New(reg registry.Registry, rc config.RunConfig, tag platform.Tag, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		logger:   logger,
		Registry: reg,
		Config:   rc,
		Tag:      tag,
	}
}

// WithConfirmer returns a copy of the Engine using the given Confirmer for
// destructive actions.
func (e *Engine) WithConfirmer(c Confirmer) *Engine {
	e2 := *e
	e2.confirm = c

	return &e2
}

// Execute runs the engine in the mode selected by the RunConfig and returns
// the ordered per-unit outcomes. In uninstall mode a confirmation is
// obtained first unless dry-run is set; declining returns ErrCanceled with
// no outcomes.
func (e *Engine) Execute(ctx context.Context) ([]registry.Outcome, error) {
	if e.Tag == platform.TagUnknown {
		e.logger.Warn("platform could not be identified, proceeding best-effort",
			slog.String("tag", string(e.Tag)))
	}

	if !e.Config.Uninstall {
		return e.install(ctx), nil
	}

	if !e.Config.DryRun {
		ok, err := e.confirmUninstall()
		if err != nil {
			return nil, fmt.Errorf("reading confirmation: %w", err)
		}

		if !ok {
			return nil, ErrCanceled
		}
	}

	return e.uninstall(ctx), nil
}

func (e *Engine) confirmUninstall() (bool, error) {
	if e.confirm == nil {
		return false, errors.New("uninstall requires confirmation but no prompt is available")
	}

	// Default answer is No.
	return e.confirm.Confirm("Remove all managed units and symlinks?", false)
}

// install drives one unit after another, in declaration order. Exactly one
// outcome is emitted per unit.
func (e *Engine) install(ctx context.Context) []registry.Outcome {
	outcomes := make([]registry.Outcome, 0, len(e.Registry))

	for _, unit := range e.Registry {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, registry.Failed(unit.Name, err))
			continue
		}

		outcomes = append(outcomes, e.installUnit(ctx, unit))
	}

	return outcomes
}

func (e *Engine) installUnit(ctx context.Context, unit registry.Unit) registry.Outcome {
	if unit.Skippable && e.Config.Skipped(unit.Name) {
		e.logger.Info("skipping unit", slog.String("unit", unit.Name), slog.String("reason", "explicit skip"))
		return registry.Skipped(unit.Name, "explicit skip")
	}

	// A nil or failing check means we cannot prove presence; treat as not
	// present and attempt the install.
	present := false

	if unit.Present != nil {
		var err error

		present, err = unit.Present(ctx)
		if err != nil {
			e.logger.Warn("presence check failed, treating as not present",
				slog.String("unit", unit.Name),
				slog.String("error", err.Error()))
			present = false
		}
	}

	if present && !e.Config.Force {
		e.logger.Debug("unit already installed", slog.String("unit", unit.Name))
		return registry.Skipped(unit.Name, "already installed")
	}

	if present && e.Config.Force {
		e.logger.Info("forcing reinstall over existing installation",
			slog.String("unit", unit.Name))
	}

	if !unit.Applicable() {
		e.logger.Warn("unit has no install action for this platform",
			slog.String("unit", unit.Name),
			slog.String("platform", string(e.Tag)))
		return registry.Skipped(unit.Name, fmt.Sprintf("not applicable on %s", e.Tag))
	}

	if e.Config.DryRun {
		return registry.WouldRun(unit.Name, unit.Preview)
	}

	e.logger.Info("installing unit", slog.String("unit", unit.Name))

	if err := unit.Install(ctx); err != nil {
		e.logger.Error("install failed",
			slog.String("unit", unit.Name),
			slog.String("error", err.Error()))
		return registry.Failed(unit.Name, err)
	}

	return registry.Installed(unit.Name, unit.Preview)
}

// uninstall walks the registry in reverse declaration order. Removals are
// destructive and idempotent, so ordering is safety only: undo the link
// step before removing the tools it points at.
func (e *Engine) uninstall(ctx context.Context) []registry.Outcome {
	outcomes := make([]registry.Outcome, 0, len(e.Registry))

	for i := len(e.Registry) - 1; i >= 0; i-- {
		unit := e.Registry[i]

		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, registry.Failed(unit.Name, err))
			continue
		}

		outcomes = append(outcomes, e.uninstallUnit(ctx, unit))
	}

	return outcomes
}

func (e *Engine) uninstallUnit(ctx context.Context, unit registry.Unit) registry.Outcome {
	if unit.Skippable && e.Config.Skipped(unit.Name) {
		return registry.Skipped(unit.Name, "explicit skip")
	}

	if unit.Uninstall == nil {
		return registry.Skipped(unit.Name, "nothing to remove")
	}

	if e.Config.DryRun {
		return registry.WouldRun(unit.Name, unit.UninstallPreview)
	}

	e.logger.Info("removing unit", slog.String("unit", unit.Name))

	if err := unit.Uninstall(ctx); err != nil {
		e.logger.Error("uninstall failed",
			slog.String("unit", unit.Name),
			slog.String("error", err.Error()))
		return registry.Failed(unit.Name, err)
	}

	return registry.Removed(unit.Name, unit.UninstallPreview)
}
