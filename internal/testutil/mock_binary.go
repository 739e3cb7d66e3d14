// Package testutil provides test helpers shared across packages.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// CreateMockBinary creates a fake executable in dir that writes stdout/stderr
// content and exits with the given code.
// Returns the full path to the created binary.
func CreateMockBinary(t *testing.T, dir, name string, exitCode int, stdout, stderr string) string {
	t.Helper()

	path := filepath.Join(dir, name)

	script := "#!/bin/sh\n"

	if stdout != "" {
		script += fmt.Sprintf("echo '%s'\n", stdout)
	}

	if stderr != "" {
		script += fmt.Sprintf("echo '%s' >&2\n", stderr)
	}

	script += fmt.Sprintf("exit %d\n", exitCode)

	if err := os.WriteFile(path, []byte(script), 0o755); err != nil { //nolint:gosec // test helper: mock binary must be executable
		t.Fatalf("failed to create mock binary %s: %v", name, err)
	}

	return path
}

// CreateRecordingBinary creates a fake executable that appends its arguments
// to logFile, one invocation per line, then exits 0.
func CreateRecordingBinary(t *testing.T, dir, name, logFile string) string {
	t.Helper()

	path := filepath.Join(dir, name)

	script := fmt.Sprintf("#!/bin/sh\necho \"$@\" >> '%s'\nexit 0\n", logFile)

	if err := os.WriteFile(path, []byte(script), 0o755); err != nil { //nolint:gosec // test helper: mock binary must be executable
		t.Fatalf("failed to create mock binary %s: %v", name, err)
	}

	return path
}

// PrependPath returns the current PATH with dir prepended, using the
// OS-appropriate path list separator.
func PrependPath(t *testing.T, dir string) string {
	t.Helper()

	return dir + string(os.PathListSeparator) + os.Getenv("PATH")
}
