// SPDX-License-Identifier: MPL-2.0

package buildsystem

import (
	"context"
	"fmt"

	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/staging"
	"github.com/releasetrain/trainctl/internal/toolchain"
)

type (
	// BuildSystem performs the concrete release steps for one project. Failures
	// should be reported as *OperationError.
	BuildSystem interface {
		// Open, Close and Release drive the remote staging service. Only the
		// orchestrator project's plugin is asked to do this.
		staging.Remote

		// WithJavaVersion returns a handle bound to v. The receiver is unchanged.
		WithJavaVersion(v toolchain.JavaVersion) BuildSystem
		// JavaVersion returns the bound toolchain; zero when unbound.
		JavaVersion() toolchain.JavaVersion

		UpdateProjectDescriptors(ctx context.Context, module model.ModuleIteration, info UpdateInformation) (model.ModuleIteration, error)
		PrepareVersion(ctx context.Context, module model.ModuleIteration, phase model.Phase) (model.ModuleIteration, error)
		TriggerBuild(ctx context.Context, module model.ModuleIteration) (model.ModuleIteration, error)
		TriggerDocumentationBuild(ctx context.Context, module model.ModuleIteration) (model.ModuleIteration, error)
		TriggerDistributionBuild(ctx context.Context, module model.Module) (model.Module, error)
		TriggerPreReleaseCheck(ctx context.Context, module model.ModuleIteration) (model.ModuleIteration, error)

		// Deploy uploads the module artifacts. repo is staging.Empty for
		// non-public iterations; deploying into a closed repository is an
		// operation error.
		Deploy(ctx context.Context, module model.ModuleIteration, repo staging.Repository) (DeploymentInformation, error)
		SmokeTests(ctx context.Context, train model.TrainIteration, repo staging.Repository) error

		Verify(ctx context.Context) error
		VerifyStagingAuthentication(ctx context.Context) error
	}

	// UpdateInformation carries what a descriptor update needs to know about
	// the whole train.
	UpdateInformation struct {
		Iteration model.TrainIteration
		Phase     model.Phase
	}

	// DeploymentInformation describes one module deployment.
	DeploymentInformation struct {
		Module      model.ModuleIteration
		Repository  staging.Repository
		BuildName   string
		BuildNumber string
		// TargetRepository is the remote the artifacts were uploaded to
		// (a staging id or a snapshot repository name).
		TargetRepository string
	}
)

// NewUpdateInformation validates the phase and binds it to the train iteration.
func NewUpdateInformation(ti model.TrainIteration, phase model.Phase) (UpdateInformation, error) {
	if ti.IsZero() {
		return UpdateInformation{}, model.ErrEmptyTrain
	}
	if ok, errs := phase.IsValid(); !ok {
		return UpdateInformation{}, errs[0]
	}
	return UpdateInformation{Iteration: ti, Phase: phase}, nil
}

// ProjectVersionToSet returns the version the descriptor of project must carry
// for the phase: the release version of the iteration during prepare and
// release, the next development snapshot during cleanup.
//
// ok is false when project is not part of the train.
func (u UpdateInformation) ProjectVersionToSet(project model.Project) (model.Version, bool) {
	mi, ok := u.Iteration.Module(project)
	if !ok {
		return model.Version{}, false
	}
	return VersionForPhase(mi, u.Phase), true
}

// VersionForPhase returns the version mi carries after phase.
func VersionForPhase(mi model.ModuleIteration, phase model.Phase) model.Version {
	if phase == model.PhaseCleanup {
		return NextDevelopmentVersion(mi)
	}
	return mi.ReleaseVersion()
}

// NextDevelopmentVersion returns the snapshot that follows the iteration. After
// a GA or service release the patch number moves on; previews keep developing
// towards the same version.
func NextDevelopmentVersion(mi model.ModuleIteration) model.Version {
	if mi.Iteration().IsPublic() {
		return mi.Version().NextPatch().WithSnapshot()
	}
	return mi.Version().WithSnapshot()
}

// String renders the deployment for logs.
func (d DeploymentInformation) String() string {
	return fmt.Sprintf("%s -> %s (%s #%s)", d.Module.Project(), d.TargetRepository, d.BuildName, d.BuildNumber)
}
