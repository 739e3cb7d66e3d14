package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors for unit actions
var (
	ErrPresenceCheck    = errors.New("presence check could not run")
	ErrDownloadFailed   = errors.New("download failed")
	ErrArtifactTooSmall = errors.New("downloaded artifact below minimum size")
)

// InstallError records a unit action failure together with the method that
// produced it (package manager name, "git", "url", "command", "link").
type InstallError struct {
	Err    error
	Unit   string
	Method string
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %s via %s: %v", e.Unit, e.Method, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// NewInstallError creates a new InstallError
func NewInstallError(unit, method string, err error) *InstallError {
	return &InstallError{
		Unit:   unit,
		Method: method,
		Err:    err,
	}
}
