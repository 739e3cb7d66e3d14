// Package registry defines the ordered table of installable units and the
// actions that drive them.
package registry

import "context"

// Kind classifies the outcome of driving one unit through a run.
type Kind string

// Outcome kinds.
const (
	// KindInstalled means the unit's install action ran and succeeded
	KindInstalled Kind = "installed"
	// KindSkipped means the unit was not acted on (explicit skip, already
	// present, or not applicable on this platform)
	KindSkipped Kind = "skipped"
	// KindFailed means the unit's action ran and failed
	KindFailed Kind = "failed"
	// KindWouldRun is the dry-run preview of an action that was not executed
	KindWouldRun Kind = "would-run"
	// KindRemoved means the unit's uninstall action ran and succeeded
	KindRemoved Kind = "removed"
)

// Outcome records what happened to one unit. Exactly one Outcome is
// produced per unit per run.
type Outcome struct {
	Err    error
	Unit   string
	Kind   Kind
	Detail string
}

// Installed builds an installed outcome.
func Installed(unit, detail string) Outcome {
	return Outcome{Unit: unit, Kind: KindInstalled, Detail: detail}
}

// Skipped builds a skipped outcome with the reason.
func Skipped(unit, reason string) Outcome {
	return Outcome{Unit: unit, Kind: KindSkipped, Detail: reason}
}

// Failed builds a failed outcome wrapping the action error.
func Failed(unit string, err error) Outcome {
	detail := ""
	if err != nil {
		detail = err.Error()
	}

	return Outcome{Unit: unit, Kind: KindFailed, Detail: detail, Err: err}
}

// Removed builds a removed outcome.
func Removed(unit, detail string) Outcome {
	return Outcome{Unit: unit, Kind: KindRemoved, Detail: detail}
}

// WouldRun builds a dry-run preview outcome.
func WouldRun(unit, preview string) Outcome {
	return Outcome{Unit: unit, Kind: KindWouldRun, Detail: preview}
}

// Unit is one named installable component, resolved for the detected
// platform: action closures are bound once at registry build time rather
// than re-branching on the platform inline.
type Unit struct {
	// Present evaluates the presence-check predicate. Nil, and a check
	// that returns an error, both read as "not present".
	Present func(ctx context.Context) (bool, error)
	// Install runs the unit's install action. Nil when the unit has no
	// action for the detected platform.
	Install func(ctx context.Context) error
	// Uninstall removes the unit, tolerating "nothing to remove" as success.
	Uninstall func(ctx context.Context) error

	Name        string
	Description string
	// Preview describes the install action for dry-run output.
	Preview string
	// UninstallPreview describes the uninstall action for dry-run output.
	UninstallPreview string
	Skippable        bool
	LinkStep         bool
}

// Applicable reports whether the unit has an install action on this platform.
func (u Unit) Applicable() bool {
	return u.Install != nil
}

// Registry is the ordered unit table. Order is significant: later units may
// assume earlier ones succeeded.
type Registry []Unit

// Names returns the unit names in declaration order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for _, u := range r {
		names = append(names, u.Name)
	}

	return names
}

// ByName returns the unit with the given name, or false.
func (r Registry) ByName(name string) (Unit, bool) {
	for _, u := range r {
		if u.Name == name {
			return u, true
		}
	}

	return Unit{}, false
}
