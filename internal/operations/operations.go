// SPDX-License-Identifier: MPL-2.0

package operations

import (
	"context"
	"errors"
	"fmt"

	"github.com/releasetrain/trainctl/internal/buildsystem"
	"github.com/releasetrain/trainctl/internal/executor"
	"github.com/releasetrain/trainctl/internal/logging"
	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/staging"
)

var (
	// ErrDeployFailed is returned by PerformRelease when a module could not be
	// deployed. The staging repository is left open for inspection.
	ErrDeployFailed = errors.New("deployment failed")
	// ErrReleaseNotApproved is returned when the approver declines promotion.
	// The staging repository stays closed.
	ErrReleaseNotApproved = errors.New("release not approved")
	// ErrZeroModule is returned when a single-module verb receives the zero ModuleIteration.
	ErrZeroModule = errors.New("module iteration must not be empty")
	// ErrNilLifecycle is returned by staging verbs without a lifecycle.
	ErrNilLifecycle = errors.New("staging lifecycle must not be nil")
)

type (
	// ModuleSummary aggregates a per-module step over a train iteration.
	ModuleSummary = executor.Summary[model.ModuleIteration, model.ModuleIteration]
	// DeploymentSummary aggregates the deployments of a train iteration.
	DeploymentSummary = executor.Summary[model.ModuleIteration, buildsystem.DeploymentInformation]
	// DistributionSummary aggregates the distribution builds of a train.
	DistributionSummary = executor.Summary[model.Module, model.Module]

	// Option configures Operations.
	Option func(*Operations)

	// Operations exposes the release-process verbs.
	Operations struct {
		registry        executor.Resolver
		exec            *executor.Executor
		logger          *logging.Logger
		orchestrator    model.Project
		approver        Approver
		localRepository string
	}
)

// WithOrchestrator sets the project that verifies the environment, drives
// the staging repository and runs smoke tests. Defaults to model.ProjectBuild.
func WithOrchestrator(p model.Project) Option {
	return func(o *Operations) {
		if p != "" {
			o.orchestrator = p
		}
	}
}

// WithApprover sets the release gate of PerformRelease. Defaults to AutoApprove.
func WithApprover(a Approver) Option {
	return func(o *Operations) {
		if a != nil {
			o.approver = a
		}
	}
}

// WithLocalRepository sets the local artifact repository path.
func WithLocalRepository(path string) Option {
	return func(o *Operations) { o.localRepository = path }
}

// New creates the facade.
func New(registry executor.Resolver, exec *executor.Executor, logger *logging.Logger, opts ...Option) (*Operations, error) {
	if registry == nil {
		return nil, executor.ErrNilResolver
	}
	if exec == nil {
		return nil, executor.ErrNilExecutor
	}
	if logger == nil {
		logger = logging.Discard()
	}
	o := &Operations{
		registry:     registry,
		exec:         exec,
		logger:       logger,
		orchestrator: model.ProjectBuild,
		approver:     AutoApprove,
	}
	for _, opt := range opts {
		opt(o)
	}
	if ok, errs := o.orchestrator.IsValid(); !ok {
		return nil, fmt.Errorf("orchestrator: %w", errors.Join(errs...))
	}
	return o, nil
}

// Orchestrator returns the orchestrator project.
func (o *Operations) Orchestrator() model.Project { return o.orchestrator }

// LocalRepository returns the path of the local artifact repository.
func (o *Operations) LocalRepository() string { return o.localRepository }

// UpdateProjectDescriptors updates the inter-project dependencies of every
// module for phase, in dependency order.
func (o *Operations) UpdateProjectDescriptors(ctx context.Context, ti model.TrainIteration, phase model.Phase) (ModuleSummary, error) {
	info, err := buildsystem.NewUpdateInformation(ti, phase)
	if err != nil {
		return ModuleSummary{}, err
	}
	summary, err := executor.RunOrdered(ctx, o.exec, ti.Modules(),
		func(ctx context.Context, bs buildsystem.BuildSystem, mi model.ModuleIteration) (model.ModuleIteration, error) {
			return bs.UpdateProjectDescriptors(ctx, mi, info)
		})
	if err != nil {
		return ModuleSummary{}, err
	}
	o.logger.Log(ti, "Update project descriptors: %s", summary)
	return summary, nil
}

// PrepareVersions switches every module to the version of phase, in
// dependency order.
func (o *Operations) PrepareVersions(ctx context.Context, ti model.TrainIteration, phase model.Phase) (ModuleSummary, error) {
	if err := checkTrain(ti, phase); err != nil {
		return ModuleSummary{}, err
	}
	summary, err := executor.RunOrdered(ctx, o.exec, ti.Modules(), prepareVersion(phase))
	if err != nil {
		return ModuleSummary{}, err
	}
	o.logger.Log(ti, "Prepare versions: %s", summary)
	return summary, nil
}

// PrepareVersion switches one module to the version of phase.
func (o *Operations) PrepareVersion(ctx context.Context, mi model.ModuleIteration, phase model.Phase) (model.ModuleIteration, error) {
	if err := checkModule(mi); err != nil {
		return model.ModuleIteration{}, err
	}
	if ok, errs := phase.IsValid(); !ok {
		return model.ModuleIteration{}, errs[0]
	}
	return executor.RunSingle(ctx, o.exec, mi, prepareVersion(phase))
}

// Build runs a local build of every module in dependency order.
func (o *Operations) Build(ctx context.Context, ti model.TrainIteration) (ModuleSummary, error) {
	return o.orderedModules(ctx, ti, ti.Modules(), "Build", triggerBuild)
}

// TriggerBuild runs a local build of one module.
func (o *Operations) TriggerBuild(ctx context.Context, mi model.ModuleIteration) (model.ModuleIteration, error) {
	return o.single(ctx, mi, triggerBuild)
}

// BuildDocumentation builds the reference documentation of every module that
// ships one. The BOM, Commons and the orchestrator are left out.
func (o *Operations) BuildDocumentation(ctx context.Context, ti model.TrainIteration) (ModuleSummary, error) {
	if ti.IsZero() {
		return ModuleSummary{}, model.ErrEmptyTrain
	}
	modules := ti.ModulesExcept(model.ProjectBOM, model.ProjectCommons, o.orchestrator)
	if len(modules) == 0 {
		o.logger.Log(ti, "Documentation build: no modules with documentation")
		return ModuleSummary{}, nil
	}
	return o.orderedModules(ctx, ti, modules, "Documentation build", triggerDocumentationBuild)
}

// BuildDocumentationFor builds the documentation of one module.
func (o *Operations) BuildDocumentationFor(ctx context.Context, mi model.ModuleIteration) (model.ModuleIteration, error) {
	result, err := o.single(ctx, mi, triggerDocumentationBuild)
	if err == nil {
		o.logger.Log(mi, "Documentation build finished")
	}
	return result, err
}

// RunPreReleaseChecks runs the pre-release checks of every module. The checks
// are independent and run in any order.
func (o *Operations) RunPreReleaseChecks(ctx context.Context, ti model.TrainIteration) (ModuleSummary, error) {
	if ti.IsZero() {
		return ModuleSummary{}, model.ErrEmptyTrain
	}
	summary, err := executor.RunAnyOrder(ctx, o.exec, ti.Modules(), triggerPreReleaseCheck)
	if err != nil {
		return ModuleSummary{}, err
	}
	o.logger.Log(ti, "Pre-release checks: %s", summary)
	return summary, nil
}

// DistributeResources triggers the distribution builds of every module of
// train in any order.
func (o *Operations) DistributeResources(ctx context.Context, train model.Train) (DistributionSummary, error) {
	if err := train.Validate(); err != nil {
		return DistributionSummary{}, err
	}
	summary, err := executor.RunAnyOrder(ctx, o.exec, train.Modules, triggerDistributionBuild)
	if err != nil {
		return DistributionSummary{}, err
	}
	o.logger.Log(train, "Distribution build: %s", summary)
	return summary, nil
}

// DistributeIteration triggers the distribution builds of the train of ti.
func (o *Operations) DistributeIteration(ctx context.Context, ti model.TrainIteration) (DistributionSummary, error) {
	if ti.IsZero() {
		return DistributionSummary{}, model.ErrEmptyTrain
	}
	return o.DistributeResources(ctx, ti.Train())
}

// DistributeResourcesFor triggers the distribution build of one module.
func (o *Operations) DistributeResourcesFor(ctx context.Context, mi model.ModuleIteration) (model.Module, error) {
	if err := checkModule(mi); err != nil {
		return model.Module{}, err
	}
	return executor.RunSingle(ctx, o.exec, mi.Module(), triggerDistributionBuild)
}

// BuildAndDeployRelease builds one module and deploys it outside of any
// staging repository.
func (o *Operations) BuildAndDeployRelease(ctx context.Context, mi model.ModuleIteration) (buildsystem.DeploymentInformation, error) {
	if err := checkModule(mi); err != nil {
		return buildsystem.DeploymentInformation{}, err
	}
	return executor.RunSingle(ctx, o.exec, mi, deploy(staging.Empty))
}

// PerformReleaseFor is BuildAndDeployRelease.
func (o *Operations) PerformReleaseFor(ctx context.Context, mi model.ModuleIteration) (buildsystem.DeploymentInformation, error) {
	return o.BuildAndDeployRelease(ctx, mi)
}

// Verify checks the release environment through the orchestrator plugin.
func (o *Operations) Verify(ctx context.Context) error {
	bs, err := o.orchestratorPlugin(ctx)
	if err != nil {
		return err
	}
	return bs.Verify(ctx)
}

// VerifyStagingAuthentication checks the staging service credentials through
// the orchestrator plugin.
func (o *Operations) VerifyStagingAuthentication(ctx context.Context) error {
	bs, err := o.orchestratorPlugin(ctx)
	if err != nil {
		return err
	}
	return bs.VerifyStagingAuthentication(ctx)
}

// orchestratorPlugin resolves the orchestrator and binds it to its toolchain.
// Failures are returned as-is.
func (o *Operations) orchestratorPlugin(ctx context.Context) (buildsystem.BuildSystem, error) {
	bs, err := o.registry.Resolve(o.orchestrator)
	if err != nil {
		return nil, err
	}
	v, err := o.exec.DetectJavaVersion(ctx, o.orchestrator)
	if err != nil {
		return nil, err
	}
	return bs.WithJavaVersion(v), nil
}

func (o *Operations) orderedModules(ctx context.Context, ti model.TrainIteration, modules []model.ModuleIteration, verb string,
	op executor.Operation[model.ModuleIteration, model.ModuleIteration],
) (ModuleSummary, error) {
	if ti.IsZero() {
		return ModuleSummary{}, model.ErrEmptyTrain
	}
	summary, err := executor.RunOrdered(ctx, o.exec, modules, op)
	if err != nil {
		return ModuleSummary{}, err
	}
	o.logger.Log(ti, "%s: %s", verb, summary)
	return summary, nil
}

func (o *Operations) single(ctx context.Context, mi model.ModuleIteration,
	op executor.Operation[model.ModuleIteration, model.ModuleIteration],
) (model.ModuleIteration, error) {
	if err := checkModule(mi); err != nil {
		return model.ModuleIteration{}, err
	}
	return executor.RunSingle(ctx, o.exec, mi, op)
}

func checkTrain(ti model.TrainIteration, phase model.Phase) error {
	if ti.IsZero() {
		return model.ErrEmptyTrain
	}
	if ok, errs := phase.IsValid(); !ok {
		return errs[0]
	}
	return nil
}

func checkModule(mi model.ModuleIteration) error {
	if mi.IsZero() {
		return ErrZeroModule
	}
	return nil
}

func prepareVersion(phase model.Phase) executor.Operation[model.ModuleIteration, model.ModuleIteration] {
	return func(ctx context.Context, bs buildsystem.BuildSystem, mi model.ModuleIteration) (model.ModuleIteration, error) {
		return bs.PrepareVersion(ctx, mi, phase)
	}
}

func deploy(repo staging.Repository) executor.Operation[model.ModuleIteration, buildsystem.DeploymentInformation] {
	return func(ctx context.Context, bs buildsystem.BuildSystem, mi model.ModuleIteration) (buildsystem.DeploymentInformation, error) {
		return bs.Deploy(ctx, mi, repo)
	}
}

func triggerBuild(ctx context.Context, bs buildsystem.BuildSystem, mi model.ModuleIteration) (model.ModuleIteration, error) {
	return bs.TriggerBuild(ctx, mi)
}

func triggerDocumentationBuild(ctx context.Context, bs buildsystem.BuildSystem, mi model.ModuleIteration) (model.ModuleIteration, error) {
	return bs.TriggerDocumentationBuild(ctx, mi)
}

func triggerPreReleaseCheck(ctx context.Context, bs buildsystem.BuildSystem, mi model.ModuleIteration) (model.ModuleIteration, error) {
	return bs.TriggerPreReleaseCheck(ctx, mi)
}

func triggerDistributionBuild(ctx context.Context, bs buildsystem.BuildSystem, m model.Module) (model.Module, error) {
	return bs.TriggerDistributionBuild(ctx, m)
}
