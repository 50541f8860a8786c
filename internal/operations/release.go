// SPDX-License-Identifier: MPL-2.0

package operations

import (
	"context"
	"fmt"

	"github.com/releasetrain/trainctl/internal/buildsystem"
	"github.com/releasetrain/trainctl/internal/executor"
	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/staging"
)

// OpenStagingRepository starts a staging lifecycle on the orchestrator. The
// repository is only opened remotely for public iterations.
func (o *Operations) OpenStagingRepository(ctx context.Context, iteration model.Iteration) (*staging.Lifecycle, error) {
	if iteration.IsZero() {
		return nil, &model.InvalidIterationError{}
	}
	bs, err := o.orchestratorPlugin(ctx)
	if err != nil {
		return nil, err
	}
	lc, err := staging.NewLifecycle(bs)
	if err != nil {
		return nil, err
	}
	repo, err := lc.Open(ctx, iteration.IsPublic())
	if err != nil {
		return nil, err
	}
	o.logger.Debug("staging repository opened", "iteration", iteration, "repository", repo)
	return lc, nil
}

// AttachStagingRepository resumes the lifecycle of a repository opened or
// closed by an earlier invocation.
func (o *Operations) AttachStagingRepository(ctx context.Context, repo staging.Repository, state staging.State) (*staging.Lifecycle, error) {
	bs, err := o.orchestratorPlugin(ctx)
	if err != nil {
		return nil, err
	}
	return staging.Attach(bs, repo, state)
}

// CloseStagingRepository seals the repository of lc. Absent repositories are
// left alone.
func (o *Operations) CloseStagingRepository(ctx context.Context, lc *staging.Lifecycle) error {
	if lc == nil {
		return ErrNilLifecycle
	}
	return lc.Close(ctx)
}

// ReleaseStagingRepository promotes the closed repository of lc. Absent
// repositories are left alone.
func (o *Operations) ReleaseStagingRepository(ctx context.Context, lc *staging.Lifecycle) error {
	if lc == nil {
		return ErrNilLifecycle
	}
	return lc.Release(ctx)
}

// SmokeTests runs the smoke tests of ti against repo on the orchestrator.
func (o *Operations) SmokeTests(ctx context.Context, ti model.TrainIteration, repo staging.Repository) error {
	if ti.IsZero() {
		return model.ErrEmptyTrain
	}
	bs, err := o.orchestratorPlugin(ctx)
	if err != nil {
		return err
	}
	return bs.SmokeTests(ctx, ti, repo)
}

// PerformRelease deploys every module of ti and publishes the result:
// open (public iterations only), deploy in dependency order, close, smoke
// test, approve, release.
//
// When a deployment fails or is skipped the pipeline stops before closing;
// the open repository is kept for inspection and the error wraps
// ErrDeployFailed. The summary is returned in every case past dispatch.
func (o *Operations) PerformRelease(ctx context.Context, ti model.TrainIteration) ([]buildsystem.DeploymentInformation, DeploymentSummary, error) {
	if ti.IsZero() {
		return nil, DeploymentSummary{}, model.ErrEmptyTrain
	}

	lc, err := o.OpenStagingRepository(ctx, ti.Iteration())
	if err != nil {
		return nil, DeploymentSummary{}, err
	}
	repo := lc.Repository()

	summary, err := executor.RunOrdered(ctx, o.exec, ti.Modules(), deploy(repo))
	if err != nil {
		return nil, DeploymentSummary{}, err
	}
	if !summary.Complete() {
		o.logger.Warn(ti, "Release: %s", summary)
		return summary.Values(), summary, fmt.Errorf("%w (staging repository %s left %s): %w",
			ErrDeployFailed, repo, lc.State(), summary.Err())
	}

	if err := o.CloseStagingRepository(ctx, lc); err != nil {
		return summary.Values(), summary, err
	}
	if err := o.SmokeTests(ctx, ti, repo); err != nil {
		return summary.Values(), summary, err
	}

	o.logger.Log(ti, "Release: %s", summary)

	if repo.IsPresent() {
		approved, err := o.approver.Approve(ctx, ti, repo)
		if err != nil {
			return summary.Values(), summary, err
		}
		if !approved {
			return summary.Values(), summary, fmt.Errorf("%w (staging repository %s stays %s)",
				ErrReleaseNotApproved, repo, lc.State())
		}
		if err := o.ReleaseStagingRepository(ctx, lc); err != nil {
			return summary.Values(), summary, err
		}
		o.logger.Log(ti, "Staging repository %s released", repo)
	}
	return summary.Values(), summary, nil
}
