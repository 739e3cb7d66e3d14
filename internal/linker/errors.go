package linker

import (
	"errors"
	"fmt"
)

// Sentinel errors for link operations
var (
	ErrSourceMissing = errors.New("link source does not exist")
	ErrSymlinkFailed = errors.New("symlink creation failed")
	ErrBackupFailed  = errors.New("backup of existing target failed")
)

// PathError records an error and the operation and path that caused it.
type PathError struct {
	Err  error
	Op   string
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError creates a new PathError
func NewPathError(op, path string, err error) *PathError {
	return &PathError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}
