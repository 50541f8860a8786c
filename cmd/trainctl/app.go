// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/releasetrain/trainctl/internal/config"
	"github.com/releasetrain/trainctl/internal/executor"
	"github.com/releasetrain/trainctl/internal/issue"
	"github.com/releasetrain/trainctl/internal/logging"
	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/operations"
	"github.com/releasetrain/trainctl/internal/plugins"
	"github.com/releasetrain/trainctl/internal/train"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and builds its session through it.
	App struct {
		config   ConfigProvider
		registry executor.Resolver
		approver operations.Approver
		stdin    io.Reader
		stdout   io.Writer
		stderr   io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// Registry replaces the plugin registry built from the configuration.
		Registry executor.Resolver
		// Approver replaces the interactive release confirmation.
		Approver operations.Approver
		// Stdin feeds the release confirmation.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// rootFlags are the persistent flags of the root command.
	rootFlags struct {
		configPath string
		logLevel   string
		verbose    bool
	}

	// trainFlags select the train iteration a verb works on.
	trainFlags struct {
		path      string
		iteration string
	}

	// session is the per-invocation service graph.
	session struct {
		cfg    *config.Config
		logger *logging.Logger
		ops    *operations.Operations
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		config:   deps.Config,
		registry: deps.Registry,
		approver: deps.Approver,
		stdin:    deps.Stdin,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}
	if app.config == nil {
		app.config = config.NewProvider()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.approver == nil {
		app.approver = confirmApprover{in: app.stdin, out: app.stderr}
	}
	return app
}

func (a *App) loadConfig(ctx context.Context, flags *rootFlags) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := a.config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath, WorkDir: wd})
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return cfg, nil
}

// newSession builds configuration, logger, registry, executor and facade.
// approver gates PerformRelease.
func (a *App) newSession(ctx context.Context, flags *rootFlags, approver operations.Approver) (*session, error) {
	cfg, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(a.stderr, logging.Options{
		Level:           cfg.Log.Level,
		Format:          cfg.Log.Format,
		ReportTimestamp: true,
	})
	if err != nil {
		return nil, err
	}

	registry := a.registry
	if registry == nil {
		built, err := plugins.BuildRegistry(plugins.BuildRegistryOptions{
			Config: cfg,
			Stdout: a.stderr,
			Stderr: a.stderr,
			Logger: logger.Slog(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build plugin registry: %w", err)
		}
		registry = built
	}

	detector, err := cfg.Detector()
	if err != nil {
		return nil, err
	}
	exec, err := executor.New(registry, detector,
		executor.WithParallelism(cfg.Parallelism),
		executor.WithLogger(logger.Slog()))
	if err != nil {
		return nil, err
	}

	ops, err := operations.New(registry, exec, logger,
		operations.WithOrchestrator(cfg.Orchestrator),
		operations.WithLocalRepository(cfg.Maven.LocalRepository),
		operations.WithApprover(approver))
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, ops: ops}, nil
}

func loadTrainIteration(tf *trainFlags) (model.TrainIteration, error) {
	t, err := train.Load(tf.path)
	if err != nil {
		return model.TrainIteration{}, err
	}
	it, err := model.ParseIteration(tf.iteration)
	if err != nil {
		return model.TrainIteration{}, err
	}
	return model.NewTrainIteration(t, it)
}

// withSession runs fn against a fresh session. Failures before fn exit with
// ExitUsage, failures of fn with ExitFailures.
func (a *App) withSession(cmd *cobra.Command, flags *rootFlags, approver operations.Approver, fn func(context.Context, *session) error) error {
	ctx := cmd.Context()
	if approver == nil {
		approver = a.approver
	}
	s, err := a.newSession(ctx, flags, approver)
	if err != nil {
		return a.fail(cmd, flags, ExitUsage, err)
	}
	if err := fn(ctx, s); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return a.fail(cmd, flags, exitErr.Code, exitErr.Err)
		}
		return a.fail(cmd, flags, ExitFailures, err)
	}
	return nil
}

// withTrain is withSession plus loading the selected train iteration.
func (a *App) withTrain(cmd *cobra.Command, flags *rootFlags, tf *trainFlags, approver operations.Approver,
	fn func(context.Context, *session, model.TrainIteration) error,
) error {
	return a.withSession(cmd, flags, approver, func(ctx context.Context, s *session) error {
		ti, err := loadTrainIteration(tf)
		if err != nil {
			return &ExitError{Code: ExitUsage, Err: err}
		}
		return fn(ctx, s, ti)
	})
}

// fail renders err to stderr and returns the ExitError cobra hands back to Execute.
func (a *App) fail(cmd *cobra.Command, flags *rootFlags, code int, err error) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	if err != nil {
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, flags.verbose))
		if hint := issueHint(err, flags.verbose); hint != "" {
			fmt.Fprintln(a.stderr, hint)
		}
	}
	return &ExitError{Code: code, Err: err}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their Format method; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

func addTrainFlags(cmd *cobra.Command, tf *trainFlags) {
	cmd.Flags().StringVarP(&tf.path, "train", "t", "", "train descriptor (.cue, .yaml, .yml or .toml)")
	cmd.Flags().StringVarP(&tf.iteration, "iteration", "i", "", "train iteration (M<n>, RC<n>, GA or SR<n>)")
	_ = cmd.MarkFlagRequired("train")
	_ = cmd.MarkFlagRequired("iteration")
}
