package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dotstrap/dotstrap/internal/config"
)

// DefaultMinArtifactBytes is the byte floor under which a downloaded
// artifact is rejected as a corrupt or incomplete download when the unit
// spec does not set its own.
const DefaultMinArtifactBytes int64 = 64 * 1024

// ExecPerms are the permissions for downloaded installer files (rwxr-xr-x)
const ExecPerms os.FileMode = 0755

// Runner executes unit install and uninstall actions against the host.
// It is strictly sequential; all methods block until the external command
// finishes or the context is canceled.
type Runner struct {
	logger *slog.Logger
	// Expand resolves ~, env vars and template expressions in paths.
	Expand func(string) string
	Stdout io.Writer
	Stderr io.Writer
	// Manager is the system package manager command for this platform.
	Manager string
}

// NewRunner creates a Runner bound to the given package manager command.
func NewRunner(manager string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		logger:  logger,
		Expand:  func(p string) string { return config.ExpandPath(p, nil) },
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Manager: manager,
	}
}

func (r *Runner) run(cmd *exec.Cmd) error {
	r.logger.Debug("running command", slog.String("cmd", strings.Join(cmd.Args, " ")))

	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Stdin = os.Stdin

	return cmd.Run()
}

// InstallPackages installs the packages through the runner's manager.
func (r *Runner) InstallPackages(ctx context.Context, pkgs []string) error {
	mc, ok := managerCmds[r.Manager]
	if !ok {
		return fmt.Errorf("unknown package manager: %s", r.Manager)
	}

	for _, pkg := range pkgs {
		args := expandArgs(mc.install, pkg)
		cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // args from trusted lookup table

		if err := r.run(cmd); err != nil {
			return fmt.Errorf("installing %s via %s: %w", pkg, r.Manager, err)
		}
	}

	return nil
}

// RemovePackages removes the packages through the runner's manager.
// Packages the manager does not report as installed are skipped, so a
// second uninstall run succeeds with nothing to do.
func (r *Runner) RemovePackages(ctx context.Context, pkgs []string) error {
	mc, ok := managerCmds[r.Manager]
	if !ok {
		return fmt.Errorf("unknown package manager: %s", r.Manager)
	}

	for _, pkg := range pkgs {
		if !r.PackageInstalled(ctx, pkg) {
			r.logger.Debug("package not installed, nothing to remove", slog.String("pkg", pkg))
			continue
		}

		args := expandArgs(mc.remove, pkg)
		cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // args from trusted lookup table

		if err := r.run(cmd); err != nil {
			return fmt.Errorf("removing %s via %s: %w", pkg, r.Manager, err)
		}
	}

	return nil
}

// PackageInstalled queries the manager for a single package.
// A check that cannot run counts as "not installed".
func (r *Runner) PackageInstalled(ctx context.Context, pkg string) bool {
	mc, ok := managerCmds[r.Manager]
	if !ok {
		return false
	}

	args := expandArgs(mc.check, pkg)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // args from trusted lookup table

	// Run silently - just check exit code
	cmd.Stdout = nil
	cmd.Stderr = nil

	return cmd.Run() == nil
}

// GitClone clones the spec's repository into target, preferring the primary
// (typically SSH) URL and falling back to HTTPS when the primary fails.
// An existing clone is updated with git pull instead.
func (r *Runner) GitClone(ctx context.Context, spec *config.GitSpec, target string) error {
	target = r.Expand(target)

	if _, err := os.Stat(filepath.Join(target, ".git")); err == nil {
		cmd := exec.CommandContext(ctx, "git", "-C", target, "pull", "--ff-only")
		if err := r.run(cmd); err != nil {
			return fmt.Errorf("updating existing clone at %s: %w", target, err)
		}

		return nil
	}

	if err := r.gitCloneURL(ctx, spec, spec.URL, target); err != nil {
		if spec.HTTPSURL == "" || spec.HTTPSURL == spec.URL {
			return err
		}

		r.logger.Warn("clone failed, retrying over https",
			slog.String("url", spec.URL),
			slog.String("https_url", spec.HTTPSURL),
			slog.String("error", err.Error()))

		return r.gitCloneURL(ctx, spec, spec.HTTPSURL, target)
	}

	return nil
}

func (r *Runner) gitCloneURL(ctx context.Context, spec *config.GitSpec, url, target string) error {
	args := []string{"clone"}
	if spec.Branch != "" {
		args = append(args, "-b", spec.Branch)
	}

	if spec.Depth > 0 {
		args = append(args, "--depth", fmt.Sprint(spec.Depth))
	}

	args = append(args, url, target)

	cmd := exec.CommandContext(ctx, "git", args...) //nolint:gosec // args from trusted config
	if err := r.run(cmd); err != nil {
		return fmt.Errorf("git clone %s: %w", url, err)
	}

	return nil
}

// DownloadAndRun downloads the spec's URL via curl into a temp directory,
// rejects artifacts under the byte-size floor as corrupt or incomplete, and
// runs the spec's install command with {file} substituted. The command is
// never run when the integrity check fails.
func (r *Runner) DownloadAndRun(ctx context.Context, spec config.URLSpec) error {
	// Temp directory rather than a bare temp file avoids a TOCTOU race on
	// the file path.
	tmpDir, err := os.MkdirTemp("", "dotstrap-*")
	if err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}

	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			r.logger.Warn("failed to remove temp directory",
				slog.String("path", tmpDir),
				slog.String("error", err.Error()))
		}
	}()

	tmpPath := filepath.Join(tmpDir, "artifact")

	downloadCmd := exec.CommandContext(ctx, "curl", "-fsSL", "-o", tmpPath, spec.URL) //nolint:gosec // intentional download command
	downloadCmd.Stderr = r.Stderr

	if err := downloadCmd.Run(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDownloadFailed, spec.URL, err)
	}

	if err := r.checkArtifact(tmpPath, spec.MinSize); err != nil {
		return err
	}

	if err := os.Chmod(tmpPath, ExecPerms); err != nil { //nolint:gosec // installer scripts need to be executable
		return fmt.Errorf("making artifact executable: %w", err)
	}

	command := strings.ReplaceAll(spec.Command, "{file}", tmpPath)

	cmd := exec.CommandContext(ctx, "sh", "-c", r.Expand(command)) //nolint:gosec // intentional install command from unit spec
	if err := r.run(cmd); err != nil {
		return fmt.Errorf("install command failed: %w", err)
	}

	return nil
}

// checkArtifact enforces the byte-size floor on a downloaded file.
func (r *Runner) checkArtifact(path string, minSize int64) error {
	if minSize <= 0 {
		minSize = DefaultMinArtifactBytes
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stating artifact: %w", err)
	}

	if info.Size() < minSize {
		return fmt.Errorf("%w: %d bytes (floor %d)", ErrArtifactTooSmall, info.Size(), minSize)
	}

	return nil
}

// RunShell runs a shell command from a unit spec.
func (r *Runner) RunShell(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", r.Expand(command)) //nolint:gosec // intentional command from unit spec
	if err := r.run(cmd); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}

	return nil
}

// RemovePaths deletes the given paths, expanding each first. Missing paths
// are nothing to remove and count as success.
func (r *Runner) RemovePaths(_ context.Context, paths []string) error {
	for _, p := range paths {
		expanded := r.Expand(p)

		if _, err := os.Lstat(expanded); os.IsNotExist(err) {
			r.logger.Debug("path already absent", slog.String("path", expanded))
			continue
		}

		r.logger.Info("removing path", slog.String("path", expanded))

		if err := os.RemoveAll(expanded); err != nil {
			return fmt.Errorf("removing %s: %w", expanded, err)
		}
	}

	return nil
}
