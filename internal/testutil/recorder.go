// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/releasetrain/trainctl/internal/buildsystem"
	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/staging"
	"github.com/releasetrain/trainctl/internal/toolchain"
)

// DefaultStagingID is the repository id RecordingBuildSystem.Open returns
// unless SetOpenID overrides it.
const DefaultStagingID = "staging-1001"

type (
	// Call is one recorded plugin invocation.
	Call struct {
		Project     model.Project
		Operation   buildsystem.Operation
		Repository  staging.Repository
		JavaVersion string
	}

	// Hook runs for every call before the scripted failure lookup. A non-nil
	// error fails the call; hooks may also panic or cancel contexts.
	Hook func(ctx context.Context, call Call) error

	// Recorder is shared by all RecordingBuildSystem handles of a test and
	// records their calls in invocation order.
	Recorder struct {
		mu       sync.Mutex
		calls    []Call
		failures map[failureKey]error
		openID   string
		hook     Hook
	}

	// RecordingBuildSystem is a buildsystem.BuildSystem that records every call.
	RecordingBuildSystem struct {
		rec     *Recorder
		project model.Project
		java    toolchain.JavaVersion
	}

	failureKey struct {
		project model.Project
		op      buildsystem.Operation
	}
)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		failures: make(map[failureKey]error),
		openID:   DefaultStagingID,
	}
}

// FailOn makes op fail with cause for project. The plugin reports it wrapped in
// a *buildsystem.OperationError.
func (r *Recorder) FailOn(project model.Project, op buildsystem.Operation, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[failureKey{project: project, op: op}] = cause
}

// SetOpenID sets the id returned by Open. An empty id makes Open return
// staging.Empty.
func (r *Recorder) SetOpenID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openID = id
}

// SetHook installs h for all subsequent calls.
func (r *Recorder) SetHook(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hook = h
}

// Calls returns a copy of all recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallsFor returns the recorded calls of op.
func (r *Recorder) CallsFor(op buildsystem.Operation) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Operation == op {
			out = append(out, c)
		}
	}
	return out
}

// Operations returns the operation sequence of all recorded calls.
func (r *Recorder) Operations() []buildsystem.Operation {
	calls := r.Calls()
	out := make([]buildsystem.Operation, len(calls))
	for i, c := range calls {
		out[i] = c.Operation
	}
	return out
}

// Plugin returns an unbound plugin for project that records into r.
func (r *Recorder) Plugin(project model.Project) *RecordingBuildSystem {
	return &RecordingBuildSystem{rec: r, project: project}
}

// Registry returns a frozen registry with one recording plugin per project.
func (r *Recorder) Registry(projects ...model.Project) (*buildsystem.Registry, error) {
	reg := buildsystem.NewRegistry()
	for _, p := range projects {
		if err := reg.Register(p, r.Plugin(p)); err != nil {
			return nil, err
		}
	}
	reg.Freeze()
	return reg, nil
}

func (r *Recorder) record(ctx context.Context, call Call) error {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	hook := r.hook
	cause := r.failures[failureKey{project: call.Project, op: call.Operation}]
	r.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, call); err != nil {
			cause = err
		}
	}
	if cause != nil {
		return &buildsystem.OperationError{Project: call.Project, Operation: call.Operation, Cause: cause}
	}
	return nil
}

func (b *RecordingBuildSystem) call(ctx context.Context, op buildsystem.Operation, project model.Project, repo staging.Repository) error {
	return b.rec.record(ctx, Call{Project: project, Operation: op, Repository: repo, JavaVersion: b.java.String()})
}

// Project returns the project the plugin was created for.
func (b *RecordingBuildSystem) Project() model.Project { return b.project }

// WithJavaVersion implements buildsystem.BuildSystem.
func (b *RecordingBuildSystem) WithJavaVersion(v toolchain.JavaVersion) buildsystem.BuildSystem {
	bound := *b
	bound.java = v
	return &bound
}

// JavaVersion implements buildsystem.BuildSystem.
func (b *RecordingBuildSystem) JavaVersion() toolchain.JavaVersion { return b.java }

// UpdateProjectDescriptors implements buildsystem.BuildSystem.
func (b *RecordingBuildSystem) UpdateProjectDescriptors(ctx context.Context, mi model.ModuleIteration, _ buildsystem.UpdateInformation) (model.ModuleIteration, error) {
	return mi, b.call(ctx, buildsystem.OpUpdateProjectDescriptors, mi.Project(), staging.Empty)
}

// PrepareVersion implements buildsystem.BuildSystem.
func (b *RecordingBuildSystem) PrepareVersion(ctx context.Context, mi model.ModuleIteration, _ model.Phase) (model.ModuleIteration, error) {
	return mi, b.call(ctx, buildsystem.OpPrepareVersion, mi.Project(), staging.Empty)
}

// TriggerBuild implements buildsystem.BuildSystem.
func (b *RecordingBuildSystem) TriggerBuild(ctx context.Context, mi model.ModuleIteration) (model.ModuleIteration, error) {
	return mi, b.call(ctx, buildsystem.OpTriggerBuild, mi.Project(), staging.Empty)
}

// TriggerDocumentationBuild implements buildsystem.BuildSystem.
func (b *RecordingBuildSystem) TriggerDocumentationBuild(ctx context.Context, mi model.ModuleIteration) (model.ModuleIteration, error) {
	return mi, b.call(ctx, buildsystem.OpTriggerDocumentationBuild, mi.Project(), staging.Empty)
}

// TriggerDistributionBuild implements buildsystem.BuildSystem.
func (b *RecordingBuildSystem) TriggerDistributionBuild(ctx context.Context, m model.Module) (model.Module, error) {
	return m, b.call(ctx, buildsystem.OpTriggerDistributionBuild, m.Project, staging.Empty)
}

// TriggerPreReleaseCheck implements buildsystem.BuildSystem.
func (b *RecordingBuildSystem) TriggerPreReleaseCheck(ctx context.Context, mi model.ModuleIteration) (model.ModuleIteration, error) {
	return mi, b.call(ctx, buildsystem.OpTriggerPreReleaseCheck, mi.Project(), staging.Empty)
}

// Deploy implements buildsystem.BuildSystem.
func (b *RecordingBuildSystem) Deploy(ctx context.Context, mi model.ModuleIteration, repo staging.Repository) (buildsystem.DeploymentInformation, error) {
	if err := b.call(ctx, buildsystem.OpDeploy, mi.Project(), repo); err != nil {
		return buildsystem.DeploymentInformation{}, err
	}
	target := "snapshots"
	if repo.IsPresent() {
		target = repo.ID()
	}
	return buildsystem.DeploymentInformation{
		Module:           mi,
		Repository:       repo,
		BuildName:        fmt.Sprintf("%s-%s", mi.Project(), mi.ReleaseVersion()),
		BuildNumber:      "1",
		TargetRepository: target,
	}, nil
}

// SmokeTests implements buildsystem.BuildSystem.
func (b *RecordingBuildSystem) SmokeTests(ctx context.Context, _ model.TrainIteration, repo staging.Repository) error {
	return b.call(ctx, buildsystem.OpSmokeTests, b.project, repo)
}

// Open implements staging.Remote.
func (b *RecordingBuildSystem) Open(ctx context.Context) (staging.Repository, error) {
	if err := b.call(ctx, buildsystem.OpOpen, b.project, staging.Empty); err != nil {
		return staging.Empty, err
	}
	b.rec.mu.Lock()
	id := b.rec.openID
	b.rec.mu.Unlock()
	if id == "" {
		return staging.Empty, nil
	}
	return staging.NewRepository(id)
}

// Close implements staging.Remote.
func (b *RecordingBuildSystem) Close(ctx context.Context, repo staging.Repository) error {
	return b.call(ctx, buildsystem.OpClose, b.project, repo)
}

// Release implements staging.Remote.
func (b *RecordingBuildSystem) Release(ctx context.Context, repo staging.Repository) error {
	return b.call(ctx, buildsystem.OpRelease, b.project, repo)
}

// Verify implements buildsystem.BuildSystem.
func (b *RecordingBuildSystem) Verify(ctx context.Context) error {
	return b.call(ctx, buildsystem.OpVerify, b.project, staging.Empty)
}

// VerifyStagingAuthentication implements buildsystem.BuildSystem.
func (b *RecordingBuildSystem) VerifyStagingAuthentication(ctx context.Context) error {
	return b.call(ctx, buildsystem.OpVerifyStagingAuthentication, b.project, staging.Empty)
}
