package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotstrap/dotstrap/internal/config"
	"github.com/dotstrap/dotstrap/internal/testutil"
)

func testRunner(manager string) *Runner {
	r := NewRunner(manager, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Stdout = io.Discard
	r.Stderr = io.Discard

	return r
}

// writeScript creates an executable shell script in dir.
func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()

	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil { //nolint:gosec // test helper
		t.Fatalf("writing script %s: %v", name, err)
	}
}

func readLog(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path) //nolint:gosec // test file
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		t.Fatalf("reading log: %v", err)
	}

	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestInstallPackages(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "calls.log")
	testutil.CreateRecordingBinary(t, dir, "brew", logFile)

	t.Setenv("PATH", dir)

	r := testRunner("brew")

	if err := r.InstallPackages(context.Background(), []string{"ripgrep", "fd"}); err != nil {
		t.Fatalf("InstallPackages() error: %v", err)
	}

	calls := readLog(t, logFile)
	want := []string{"install ripgrep", "install fd"}

	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}

	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestInstallPackagesUnknownManager(t *testing.T) {
	t.Parallel()

	r := testRunner("")

	if err := r.InstallPackages(context.Background(), []string{"ripgrep"}); err == nil {
		t.Error("InstallPackages() with no manager should fail")
	}
}

func TestInstallPackagesFailure(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateMockBinary(t, dir, "brew", 1, "", "install failed")

	t.Setenv("PATH", dir)

	r := testRunner("brew")

	err := r.InstallPackages(context.Background(), []string{"ripgrep"})
	if err == nil {
		t.Fatal("InstallPackages() should fail when the manager fails")
	}

	if !strings.Contains(err.Error(), "ripgrep") {
		t.Errorf("error %q does not name the package", err)
	}
}

func TestPackageInstalled(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateMockBinary(t, dir, "brew", 0, "", "")

	t.Setenv("PATH", dir)

	r := testRunner("brew")

	if !r.PackageInstalled(context.Background(), "ripgrep") {
		t.Error("PackageInstalled() = false with exit 0 check")
	}

	testutil.CreateMockBinary(t, dir, "brew", 1, "", "")

	if r.PackageInstalled(context.Background(), "ripgrep") {
		t.Error("PackageInstalled() = true with exit 1 check")
	}
}

func TestRemovePackagesSkipsAbsent(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "calls.log")

	// brew reports nothing installed; uninstall invocations are recorded
	writeScript(t, dir, "brew", `
case "$1" in
  list) exit 1 ;;
  *) echo "$@" >> '`+logFile+`' ;;
esac
exit 0
`)

	t.Setenv("PATH", dir)

	r := testRunner("brew")

	if err := r.RemovePackages(context.Background(), []string{"ripgrep"}); err != nil {
		t.Fatalf("RemovePackages() error: %v", err)
	}

	if calls := readLog(t, logFile); len(calls) != 0 && calls[0] != "" {
		t.Errorf("uninstall ran for an absent package: %v", calls)
	}
}

func TestGitClonePullsExistingClone(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "calls.log")
	testutil.CreateRecordingBinary(t, dir, "git", logFile)

	t.Setenv("PATH", dir)

	target := filepath.Join(t.TempDir(), "repo")
	if err := os.MkdirAll(filepath.Join(target, ".git"), 0o750); err != nil {
		t.Fatalf("creating fake clone: %v", err)
	}

	r := testRunner("brew")
	spec := &config.GitSpec{URL: "git@github.com:doomemacs/doomemacs.git"}

	if err := r.GitClone(context.Background(), spec, target); err != nil {
		t.Fatalf("GitClone() error: %v", err)
	}

	calls := readLog(t, logFile)
	if len(calls) != 1 || !strings.Contains(calls[0], "pull --ff-only") {
		t.Errorf("calls = %v, want a single pull", calls)
	}
}

func TestGitCloneFallsBackToHTTPS(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "calls.log")

	// SSH clones fail, HTTPS clones succeed
	writeScript(t, dir, "git", `
echo "$@" >> '`+logFile+`'
case "$@" in
  *git@*) exit 128 ;;
esac
exit 0
`)

	t.Setenv("PATH", dir)

	r := testRunner("brew")
	spec := &config.GitSpec{
		URL:      "git@github.com:doomemacs/doomemacs.git",
		HTTPSURL: "https://github.com/doomemacs/doomemacs.git",
		Branch:   "master",
		Depth:    1,
	}

	target := filepath.Join(t.TempDir(), "doom")

	if err := r.GitClone(context.Background(), spec, target); err != nil {
		t.Fatalf("GitClone() error: %v", err)
	}

	calls := readLog(t, logFile)
	if len(calls) != 2 {
		t.Fatalf("calls = %v, want ssh attempt then https retry", calls)
	}

	if !strings.Contains(calls[0], "git@github.com") {
		t.Errorf("first call %q should use the ssh url", calls[0])
	}

	if !strings.Contains(calls[1], "https://github.com") {
		t.Errorf("second call %q should use the https url", calls[1])
	}

	for _, call := range calls {
		if !strings.Contains(call, "-b master") || !strings.Contains(call, "--depth 1") {
			t.Errorf("call %q missing branch or depth args", call)
		}
	}
}

func TestDownloadAndRunRejectsSmallArtifact(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")

	// curl -fsSL -o <path> <url>: write a tiny artifact
	writeScript(t, dir, "curl", `echo tiny > "$3"`+"\n")

	t.Setenv("PATH", testutil.PrependPath(t, dir))

	r := testRunner("brew")
	spec := config.URLSpec{
		URL:     "https://example.com/installer",
		Command: "touch " + marker,
	}

	err := r.DownloadAndRun(context.Background(), spec)
	if !errors.Is(err, ErrArtifactTooSmall) {
		t.Fatalf("DownloadAndRun() error = %v, want ErrArtifactTooSmall", err)
	}

	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("install command ran despite failed integrity check")
	}
}

func TestDownloadAndRun(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")

	writeScript(t, dir, "curl", `printf 'artifact-content' > "$3"`+"\n")

	t.Setenv("PATH", testutil.PrependPath(t, dir))

	r := testRunner("brew")
	spec := config.URLSpec{
		URL: "https://example.com/installer",
		// The artifact must be executable by the time the command runs
		Command: "test -x {file} && touch " + marker,
		MinSize: 8,
	}

	if err := r.DownloadAndRun(context.Background(), spec); err != nil {
		t.Fatalf("DownloadAndRun() error: %v", err)
	}

	if _, err := os.Stat(marker); err != nil {
		t.Error("install command did not run")
	}
}

func TestDownloadAndRunDownloadFailure(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateMockBinary(t, dir, "curl", 22, "", "404")

	t.Setenv("PATH", testutil.PrependPath(t, dir))

	r := testRunner("brew")
	spec := config.URLSpec{URL: "https://example.com/missing", Command: "true"}

	err := r.DownloadAndRun(context.Background(), spec)
	if !errors.Is(err, ErrDownloadFailed) {
		t.Errorf("DownloadAndRun() error = %v, want ErrDownloadFailed", err)
	}
}

func TestRunShell(t *testing.T) {
	t.Parallel()

	marker := filepath.Join(t.TempDir(), "ran")

	r := testRunner("brew")

	if err := r.RunShell(context.Background(), "touch "+marker); err != nil {
		t.Fatalf("RunShell() error: %v", err)
	}

	if _, err := os.Stat(marker); err != nil {
		t.Error("shell command did not run")
	}
}

func TestRemovePaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	present := filepath.Join(dir, "present")

	if err := os.WriteFile(present, []byte("x"), 0o600); err != nil {
		t.Fatalf("creating file: %v", err)
	}

	r := testRunner("brew")

	paths := []string{present, filepath.Join(dir, "absent")}
	if err := r.RemovePaths(context.Background(), paths); err != nil {
		t.Fatalf("RemovePaths() error: %v", err)
	}

	if _, err := os.Stat(present); !os.IsNotExist(err) {
		t.Error("existing path was not removed")
	}
}

func TestExpandArgs(t *testing.T) {
	t.Parallel()

	got := expandArgs([]string{"sudo", "apt-get", "install", "-y", "{pkg}"}, "ripgrep")
	want := "sudo apt-get install -y ripgrep"

	if strings.Join(got, " ") != want {
		t.Errorf("expandArgs() = %v, want %q", got, want)
	}
}

func TestKnownManager(t *testing.T) {
	t.Parallel()

	for _, mgr := range []string{"brew", "apt-get", "dnf", "pacman"} {
		if !KnownManager(mgr) {
			t.Errorf("KnownManager(%s) = false", mgr)
		}
	}

	if KnownManager("yum") {
		t.Error("KnownManager(yum) = true")
	}
}
