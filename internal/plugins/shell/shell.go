// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/releasetrain/trainctl/internal/buildsystem"
	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/staging"
	"github.com/releasetrain/trainctl/internal/toolchain"
)

// SnapshotRepository is the deployment target reported when no staging
// repository is in play.
const SnapshotRepository = "snapshots"

var (
	// ErrScriptNotConfigured is the sentinel error wrapped by ScriptNotConfiguredError.
	ErrScriptNotConfigured = errors.New("script not configured")
	// ErrEmptyRepositoryID is returned when the open script prints nothing.
	ErrEmptyRepositoryID = errors.New("open script printed no repository id")
)

// Compile-time check.
var _ buildsystem.BuildSystem = (*BuildSystem)(nil)

type (
	// Options configures a shell BuildSystem.
	Options struct {
		// Workspace is the checkout root; scripts run in <Workspace>/<project>
		// when that directory exists, in Workspace otherwise.
		Workspace string
		// Scripts maps operations to script sources.
		Scripts map[buildsystem.Operation]string
		// JavaHomes maps a Java version, as spelled, to its installation.
		JavaHomes map[string]string
		// Stdout and Stderr receive script output. Nil discards it.
		Stdout io.Writer
		Stderr io.Writer
		Logger *slog.Logger
	}

	// BuildSystem runs one project's release steps as shell scripts.
	BuildSystem struct {
		project   model.Project
		workspace string
		scripts   map[buildsystem.Operation]string
		javaHomes map[string]string
		java      toolchain.JavaVersion
		stdout    io.Writer
		stderr    io.Writer
		logger    *slog.Logger
	}

	// ScriptNotConfiguredError is returned when an operation has no script.
	ScriptNotConfiguredError struct {
		Project   model.Project
		Operation buildsystem.Operation
	}

	// ScriptExitError is returned when a script exits with a non-zero status.
	ScriptExitError struct {
		Status uint8
		Stderr string
	}

	// env is the set of release variables exported to one script run.
	env map[string]string
)

// Error implements the error interface.
func (e *ScriptNotConfiguredError) Error() string {
	return fmt.Sprintf("no %s script configured for %s", e.Operation, e.Project)
}

// Unwrap returns ErrScriptNotConfigured for errors.Is() compatibility.
func (e *ScriptNotConfiguredError) Unwrap() error { return ErrScriptNotConfigured }

// Error implements the error interface.
func (e *ScriptExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("script exited with status %d", e.Status)
	}
	return fmt.Sprintf("script exited with status %d: %s", e.Status, e.Stderr)
}

// New creates the shell build system of project.
func New(project model.Project, opts Options) (*BuildSystem, error) {
	if ok, errs := project.IsValid(); !ok {
		return nil, errors.Join(errs...)
	}
	for op := range opts.Scripts {
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("scripts of %s: %w", project, err)
		}
	}

	b := &BuildSystem{
		project:   project,
		workspace: opts.Workspace,
		scripts:   maps.Clone(opts.Scripts),
		javaHomes: make(map[string]string, len(opts.JavaHomes)),
		stdout:    opts.Stdout,
		stderr:    opts.Stderr,
		logger:    opts.Logger,
	}
	// Configuration keys arrive lower-cased, so versions are matched case-insensitively.
	for v, home := range opts.JavaHomes {
		b.javaHomes[strings.ToLower(v)] = home
	}
	if b.stdout == nil {
		b.stdout = io.Discard
	}
	if b.stderr == nil {
		b.stderr = io.Discard
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b, nil
}

// Project returns the project the scripts belong to.
func (b *BuildSystem) Project() model.Project { return b.project }

// WithJavaVersion implements buildsystem.BuildSystem.
func (b *BuildSystem) WithJavaVersion(v toolchain.JavaVersion) buildsystem.BuildSystem {
	bound := *b
	bound.java = v
	return &bound
}

// JavaVersion implements buildsystem.BuildSystem.
func (b *BuildSystem) JavaVersion() toolchain.JavaVersion { return b.java }

// UpdateProjectDescriptors implements buildsystem.BuildSystem.
func (b *BuildSystem) UpdateProjectDescriptors(ctx context.Context, module model.ModuleIteration, info buildsystem.UpdateInformation) (model.ModuleIteration, error) {
	e := moduleEnv(module)
	e["PHASE"] = info.Phase.String()
	if v, ok := info.ProjectVersionToSet(module.Project()); ok {
		e["VERSION_TO_SET"] = v.String()
	}
	if _, err := b.run(ctx, buildsystem.OpUpdateProjectDescriptors, e); err != nil {
		return model.ModuleIteration{}, err
	}
	return module, nil
}

// PrepareVersion implements buildsystem.BuildSystem.
func (b *BuildSystem) PrepareVersion(ctx context.Context, module model.ModuleIteration, phase model.Phase) (model.ModuleIteration, error) {
	e := moduleEnv(module)
	e["PHASE"] = phase.String()
	e["VERSION_TO_SET"] = buildsystem.VersionForPhase(module, phase).String()
	if _, err := b.run(ctx, buildsystem.OpPrepareVersion, e); err != nil {
		return model.ModuleIteration{}, err
	}
	return module, nil
}

// TriggerBuild implements buildsystem.BuildSystem.
func (b *BuildSystem) TriggerBuild(ctx context.Context, module model.ModuleIteration) (model.ModuleIteration, error) {
	return b.moduleStep(ctx, buildsystem.OpTriggerBuild, module)
}

// TriggerDocumentationBuild implements buildsystem.BuildSystem.
func (b *BuildSystem) TriggerDocumentationBuild(ctx context.Context, module model.ModuleIteration) (model.ModuleIteration, error) {
	return b.moduleStep(ctx, buildsystem.OpTriggerDocumentationBuild, module)
}

// TriggerPreReleaseCheck implements buildsystem.BuildSystem.
func (b *BuildSystem) TriggerPreReleaseCheck(ctx context.Context, module model.ModuleIteration) (model.ModuleIteration, error) {
	return b.moduleStep(ctx, buildsystem.OpTriggerPreReleaseCheck, module)
}

// TriggerDistributionBuild implements buildsystem.BuildSystem.
func (b *BuildSystem) TriggerDistributionBuild(ctx context.Context, module model.Module) (model.Module, error) {
	e := env{"PROJECT": module.Project.String(), "VERSION": module.Version.String()}
	if _, err := b.run(ctx, buildsystem.OpTriggerDistributionBuild, e); err != nil {
		return model.Module{}, err
	}
	return module, nil
}

// Deploy implements buildsystem.BuildSystem. The last line the script prints
// becomes the build number.
func (b *BuildSystem) Deploy(ctx context.Context, module model.ModuleIteration, repo staging.Repository) (buildsystem.DeploymentInformation, error) {
	buildName := uuid.NewString()
	e := moduleEnv(module)
	e["BUILD_NAME"] = buildName
	e["STAGING_REPOSITORY_ID"] = repo.ID()

	out, err := b.run(ctx, buildsystem.OpDeploy, e)
	if err != nil {
		return buildsystem.DeploymentInformation{}, err
	}

	target := SnapshotRepository
	if repo.IsPresent() {
		target = repo.ID()
	}
	return buildsystem.DeploymentInformation{
		Module:           module,
		Repository:       repo,
		BuildName:        buildName,
		BuildNumber:      lastLine(out),
		TargetRepository: target,
	}, nil
}

// SmokeTests implements buildsystem.BuildSystem.
func (b *BuildSystem) SmokeTests(ctx context.Context, train model.TrainIteration, repo staging.Repository) error {
	e := env{
		"TRAIN":                 train.Train().Name,
		"ITERATION":             train.Iteration().String(),
		"STAGING_REPOSITORY_ID": repo.ID(),
	}
	_, err := b.run(ctx, buildsystem.OpSmokeTests, e)
	return err
}

// Open implements staging.Remote. The trimmed output of the script is the
// repository id.
func (b *BuildSystem) Open(ctx context.Context) (staging.Repository, error) {
	out, err := b.run(ctx, buildsystem.OpOpen, env{})
	if err != nil {
		return staging.Empty, err
	}
	id := strings.TrimSpace(out)
	if id == "" {
		return staging.Empty, b.opError(buildsystem.OpOpen, ErrEmptyRepositoryID)
	}
	repo, err := staging.NewRepository(id)
	if err != nil {
		return staging.Empty, b.opError(buildsystem.OpOpen, err)
	}
	return repo, nil
}

// Close implements staging.Remote.
func (b *BuildSystem) Close(ctx context.Context, repo staging.Repository) error {
	_, err := b.run(ctx, buildsystem.OpClose, env{"STAGING_REPOSITORY_ID": repo.ID()})
	return err
}

// Release implements staging.Remote.
func (b *BuildSystem) Release(ctx context.Context, repo staging.Repository) error {
	_, err := b.run(ctx, buildsystem.OpRelease, env{"STAGING_REPOSITORY_ID": repo.ID()})
	return err
}

// Verify implements buildsystem.BuildSystem.
func (b *BuildSystem) Verify(ctx context.Context) error {
	_, err := b.run(ctx, buildsystem.OpVerify, env{})
	return err
}

// VerifyStagingAuthentication implements buildsystem.BuildSystem.
func (b *BuildSystem) VerifyStagingAuthentication(ctx context.Context) error {
	_, err := b.run(ctx, buildsystem.OpVerifyStagingAuthentication, env{})
	return err
}

func (b *BuildSystem) moduleStep(ctx context.Context, op buildsystem.Operation, module model.ModuleIteration) (model.ModuleIteration, error) {
	if _, err := b.run(ctx, op, moduleEnv(module)); err != nil {
		return model.ModuleIteration{}, err
	}
	return module, nil
}

// run executes the script of op and returns its standard output. Every
// failure is an *buildsystem.OperationError.
func (b *BuildSystem) run(ctx context.Context, op buildsystem.Operation, vars env) (string, error) {
	script, ok := b.scripts[op]
	if !ok || strings.TrimSpace(script) == "" {
		return "", b.opError(op, &ScriptNotConfiguredError{Project: b.project, Operation: op})
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(script), string(op))
	if err != nil {
		return "", b.opError(op, fmt.Errorf("failed to parse script: %w", err))
	}

	var stdout, stderr bytes.Buffer
	runner, err := interp.New(
		interp.Dir(b.workDir()),
		interp.Env(expand.ListEnviron(b.environ(vars)...)),
		interp.StdIO(nil, io.MultiWriter(&stdout, b.stdout), io.MultiWriter(&stderr, b.stderr)),
	)
	if err != nil {
		return "", b.opError(op, fmt.Errorf("failed to create interpreter: %w", err))
	}

	b.logger.Debug("running script", "project", b.project, "operation", op, "dir", b.workDir())
	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return "", b.opError(op, &ScriptExitError{Status: uint8(status), Stderr: strings.TrimSpace(stderr.String())})
		}
		return "", b.opError(op, err)
	}
	return stdout.String(), nil
}

func (b *BuildSystem) opError(op buildsystem.Operation, cause error) error {
	return &buildsystem.OperationError{Project: b.project, Operation: op, Cause: cause}
}

func (b *BuildSystem) workDir() string {
	dir := filepath.Join(b.workspace, b.project.String())
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	if b.workspace == "" {
		return "."
	}
	return b.workspace
}

// environ returns the process environment overlaid with the release variables.
func (b *BuildSystem) environ(vars env) []string {
	merged := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			merged[k] = v
		}
	}
	merged["PROJECT"] = b.project.String()
	if !b.java.IsZero() {
		merged["JAVA_VERSION"] = b.java.String()
		if home, ok := b.javaHomes[strings.ToLower(b.java.String())]; ok {
			merged["JAVA_HOME"] = home
		}
	}
	maps.Copy(merged, vars)

	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	return out
}

func moduleEnv(module model.ModuleIteration) env {
	return env{
		"TRAIN":     module.TrainName(),
		"ITERATION": module.Iteration().String(),
		"PROJECT":   module.Project().String(),
		"VERSION":   module.Version().String(),
	}
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
