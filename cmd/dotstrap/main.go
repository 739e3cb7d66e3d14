// Package main provides the CLI entry point for dotstrap.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dotstrap/dotstrap/internal/config"
	"github.com/dotstrap/dotstrap/internal/engine"
	"github.com/dotstrap/dotstrap/internal/linker"
	"github.com/dotstrap/dotstrap/internal/platform"
	"github.com/dotstrap/dotstrap/internal/registry"
	"github.com/dotstrap/dotstrap/internal/report"
	"github.com/dotstrap/dotstrap/internal/state"
	tmpl "github.com/dotstrap/dotstrap/internal/template"
	"github.com/dotstrap/dotstrap/internal/tui"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	repoDir    string // Override from --dir flag
	dryRun     bool
	force      bool
	uninstall  bool
	showStatus bool
	verbose    bool
	skips      []string

	exitCode int
)

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(report.ExitUnitFailure)
	}

	os.Exit(exitCode)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "dotstrap",
		Version: version,
		Short:   "Bootstrap a development environment from a dotfiles repository",
		Long: `dotstrap installs the tools a development machine needs and links the
dotfiles repository into place. Runs are idempotent: units already present
are skipped unless --force is given.

Configuration is stored in two places:
  ~/.config/dotstrap/config.yaml  - Points to your dotfiles repo
  <repo>/dotstrap.yaml            - Defines units and link packages

Run 'dotstrap init <path>' to set up the app configuration.
Run without arguments to install everything.`,
		RunE: runRoot,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}

			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&repoDir, "dir", "d", "", "Override dotfiles repository directory (ignores app config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would be done without making changes")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "Reinstall units even when already present")
	rootCmd.Flags().BoolVarP(&uninstall, "uninstall", "u", false, "Remove managed units and symlinks")
	rootCmd.Flags().BoolVar(&showStatus, "status", false, "Show unit presence and last run outcomes")
	rootCmd.Flags().StringArrayVarP(&skips, "skip", "s", nil, "Skip the named unit (repeatable)")

	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Initialize app configuration",
		Long: `Initialize the app configuration by setting the path to your dotfiles
repository.

This creates ~/.config/dotstrap/config.yaml with the path to your repo.
If the repo has no dotstrap.yaml, the built-in unit table is used.`,
		Args: cobra.ExactArgs(1),
		RunE: runInit,
	}

	rootCmd.AddCommand(initCmd)

	return rootCmd
}

func runInit(_ *cobra.Command, args []string) error {
	path := config.ExpandPath(args[0], nil)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", absPath)
	}
	if err != nil {
		return fmt.Errorf("checking directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", absPath)
	}

	appCfg := &config.AppConfig{RepoDir: absPath}

	if _, err := os.Stat(appCfg.RepoConfigPath()); os.IsNotExist(err) {
		fmt.Printf("Note: %s not found, the built-in unit table will be used\n", appCfg.RepoConfigPath())
	}

	if err := config.SaveAppConfig(appCfg); err != nil {
		return fmt.Errorf("saving app config: %w", err)
	}

	fmt.Printf("App configuration saved to %s\n", config.AppConfigPath())
	fmt.Printf("Dotfiles repository: %s\n", absPath)

	return nil
}

// getRepoDir resolves the dotfiles repository directory: the --dir flag
// wins, then the app config, then the current directory.
func getRepoDir() (string, error) {
	if repoDir != "" {
		absPath, err := filepath.Abs(repoDir)
		if err != nil {
			return "", fmt.Errorf("invalid repository directory: %w", err)
		}

		return absPath, nil
	}

	appCfg, err := config.LoadAppConfig()
	if errors.Is(err, config.ErrNoAppConfig) {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			return "", fmt.Errorf("resolving working directory: %w", cwdErr)
		}

		return cwd, nil
	}
	if err != nil {
		return "", err
	}

	return appCfg.RepoDir, nil
}

func loadConfig() (*config.Config, string, error) {
	dir, err := getRepoDir()
	if err != nil {
		return nil, "", err
	}

	configFile := filepath.Join(dir, "dotstrap.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return config.DefaultConfig(), dir, nil
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, "", fmt.Errorf("loading config from %s: %w", configFile, err)
	}

	return cfg, dir, nil
}

// wiring bundles the collaborators one run needs.
type wiring struct {
	cfg      *config.Config
	plat     *platform.Platform
	registry registry.Registry
	runCfg   config.RunConfig
	logger   *slog.Logger
}

func buildWiring() (*wiring, error) {
	cfg, dir, err := loadConfig()
	if err != nil {
		return nil, err
	}

	plat := platform.Detect()
	logger := slog.Default()

	tmplCtx := tmpl.NewContextFromPlatform(plat)
	templates := tmpl.NewEngine(tmplCtx)

	expand := func(path string) string {
		return config.ExpandPathWithTemplate(path, plat.EnvVars, templates)
	}

	runner := registry.NewRunner(platform.PackageManagerFor(plat.Tag), logger)
	runner.Expand = expand

	sourceRoot := expand(cfg.SourceRoot)
	if !filepath.IsAbs(sourceRoot) {
		sourceRoot = filepath.Join(dir, sourceRoot)
	}

	lnk := linker.New(sourceRoot, logger)
	lnk.Expand = expand
	lnk.DryRun = dryRun
	lnk.Force = force
	lnk.Verbose = verbose
	lnk.OwnedRoots = gitTargets(cfg, plat.Tag, expand)

	linkAll := func(ctx context.Context) error {
		var all []linker.Result
		for _, pkg := range cfg.Links {
			all = append(all, lnk.Link(ctx, pkg)...)
		}

		return linker.ResultErrors(all)
	}

	unlinkAll := func(ctx context.Context) error {
		var all []linker.Result
		for _, pkg := range cfg.Links {
			all = append(all, lnk.Unlink(ctx, pkg)...)
		}

		return linker.ResultErrors(all)
	}

	reg := registry.Build(cfg, plat.Tag, registry.BuildOptions{
		Runner: runner,
		Link:   linkAll,
		Unlink: unlinkAll,
		Linked: func(context.Context) (bool, error) {
			return lnk.AllLinked(cfg.Links), nil
		},
		LinkPreview:   fmt.Sprintf("link %d dotfile packages from %s", len(cfg.Links), sourceRoot),
		UnlinkPreview: "remove symlinks pointing into " + sourceRoot,
	})

	return &wiring{
		cfg:      cfg,
		plat:     plat,
		registry: reg,
		runCfg:   config.NewRunConfig(dryRun, force, uninstall, verbose, skips),
		logger:   logger,
	}, nil
}

// gitTargets collects the clone destinations of git-installed units. The
// linker may force-delete only these paths; everything else gets backed up.
func gitTargets(cfg *config.Config, tag platform.Tag, expand func(string) string) []string {
	var targets []string

	for _, spec := range cfg.Units {
		if spec.Install.Git == nil {
			continue
		}

		if target, ok := config.LookupForTag(spec.Install.Git.Targets, tag); ok {
			targets = append(targets, expand(target))
		}
	}

	return targets
}

func runRoot(_ *cobra.Command, _ []string) error {
	w, err := buildWiring()
	if err != nil {
		return err
	}

	if showStatus {
		return runStatus(w)
	}

	if err := engine.Preflight(w.plat.Tag); err != nil {
		fmt.Fprintf(os.Stderr, "Preflight failed: %v\n", err)
		exitCode = report.ExitPreflight

		return nil
	}

	if dryRun {
		fmt.Println("=== DRY RUN MODE ===")
	}

	eng := engine.New(w.registry, w.runCfg, w.plat.Tag, w.logger).
		WithConfirmer(tui.NewConfirmer())

	outcomes, err := runWithCancellation(eng.Execute)
	if errors.Is(err, engine.ErrCanceled) {
		fmt.Println("Canceled, nothing was changed.")

		return nil
	}
	if err != nil {
		return err
	}

	recordRun(w, outcomes)

	summary := report.Summarize(outcomes)
	fmt.Print(summary.Render())

	exitCode = summary.ExitCode()

	return nil
}

// recordRun journals the outcomes. Journal problems never fail the run.
func recordRun(w *wiring, outcomes []registry.Outcome) {
	if dryRun {
		return
	}

	store, err := state.Open(stateDBPath())
	if err != nil {
		w.logger.Warn("could not open run journal", slog.String("error", err.Error()))

		return
	}

	defer func() {
		_ = store.Close() //nolint:errcheck // best-effort cleanup
	}()

	runID := state.NewRunID()

	for _, o := range outcomes {
		detail := o.Detail
		if o.Err != nil {
			detail = o.Err.Error()
		}

		if err := store.RecordOutcome(runID, o.Unit, string(o.Kind), detail, string(w.plat.Tag)); err != nil {
			w.logger.Warn("could not record outcome",
				slog.String("unit", o.Unit),
				slog.String("error", err.Error()))
		}
	}
}

func runStatus(w *wiring) error {
	store, err := state.Open(stateDBPath())
	if err != nil {
		return fmt.Errorf("opening run journal: %w", err)
	}

	defer func() {
		_ = store.Close() //nolint:errcheck // best-effort cleanup
	}()

	ctx := context.Background()
	rows := make([]report.StatusRow, 0, len(w.registry))

	for _, unit := range w.registry {
		row := report.StatusRow{
			Unit:        unit.Name,
			Description: unit.Description,
		}

		if unit.Present != nil {
			present, presErr := unit.Present(ctx)
			if presErr != nil {
				w.logger.Debug("presence check failed",
					slog.String("unit", unit.Name),
					slog.String("error", presErr.Error()))
			}

			row.Present = present
		}

		last, histErr := store.LatestOutcome(unit.Name)
		if histErr != nil {
			return fmt.Errorf("reading run journal: %w", histErr)
		}

		if last != nil {
			row.LastOutcome = last.Kind
			row.LastRun = last.RecordedAt.Format("2006-01-02 15:04")
		}

		rows = append(rows, row)
	}

	fmt.Print(report.RenderStatus(rows))

	return nil
}

func stateDBPath() string {
	return filepath.Join(config.StateDir(), "dotstrap.db")
}

// runWithCancellation runs a context-aware function with signal-based
// cancellation. SIGINT/SIGTERM cancel the context; in-flight units report
// as failed and the run summary still prints.
func runWithCancellation(fn func(ctx context.Context) ([]registry.Outcome, error)) ([]registry.Outcome, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		fmt.Println("\nOperation canceled by user")
		cancel()
	}()

	return fn(ctx)
}
