// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/releasetrain/trainctl/internal/buildsystem"
	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/testutil"
	"github.com/releasetrain/trainctl/internal/toolchain"
)

func newTrain(t *testing.T, projects ...model.Project) model.TrainIteration {
	t.Helper()
	train := model.Train{Name: "2024.1"}
	for _, p := range projects {
		train.Modules = append(train.Modules, model.Module{Project: p, Version: model.MustParseVersion("3.3.0")})
	}
	ti, err := model.NewTrainIteration(train, model.GA())
	if err != nil {
		t.Fatal(err)
	}
	return ti
}

func newExecutor(t *testing.T, rec *testutil.Recorder, registered []model.Project, opts ...Option) *Executor {
	t.Helper()
	reg, err := rec.Registry(registered...)
	if err != nil {
		t.Fatal(err)
	}
	e, err := New(reg, toolchain.ConfigDetector{Default: toolchain.MustParseJavaVersion("17")}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func prepareVersion(ctx context.Context, bs buildsystem.BuildSystem, mi model.ModuleIteration) (model.ModuleIteration, error) {
	return bs.PrepareVersion(ctx, mi, model.PhasePrepare)
}

func projectsOf[S Subject, T any](s Summary[S, T]) []model.Project {
	var out []model.Project
	for _, r := range s.Results() {
		out = append(out, r.Project())
	}
	return out
}

func TestRunOrdered_AllSucceed(t *testing.T) {
	t.Parallel()

	rec := testutil.NewRecorder()
	ti := newTrain(t, model.ProjectCommons, "core")
	e := newExecutor(t, rec, []model.Project{model.ProjectCommons, "core"})

	summary, err := RunOrdered(context.Background(), e, ti.Modules(), prepareVersion)
	if err != nil {
		t.Fatalf("RunOrdered() unexpected error: %v", err)
	}
	if summary.Len() != 2 || summary.Successes() != 2 || summary.Failures() != 0 {
		t.Fatalf("summary = %s, want 2 successes", summary)
	}
	if got := projectsOf(summary); !slices.Equal(got, []model.Project{model.ProjectCommons, "core"}) {
		t.Errorf("result order = %v, want [commons core]", got)
	}
	if summary.Err() != nil {
		t.Errorf("Err() = %v, want nil", summary.Err())
	}
	for _, c := range rec.Calls() {
		if c.JavaVersion != "17" {
			t.Errorf("%s called with java %q, want bound 17", c.Project, c.JavaVersion)
		}
	}
}

func TestRunOrdered_FailureDoesNotShortCircuit(t *testing.T) {
	t.Parallel()

	invalid := errors.New("invalid version")
	rec := testutil.NewRecorder()
	rec.FailOn(model.ProjectCommons, buildsystem.OpPrepareVersion, invalid)

	ti := newTrain(t, model.ProjectCommons, "core")
	e := newExecutor(t, rec, []model.Project{model.ProjectCommons, "core"})

	summary, err := RunOrdered(context.Background(), e, ti.Modules(), prepareVersion)
	if err != nil {
		t.Fatalf("RunOrdered() unexpected error: %v", err)
	}

	results := summary.Results()
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if !results[0].IsFailure() || results[0].Project() != model.ProjectCommons {
		t.Errorf("results[0] = %s, want commons failure", results[0])
	}
	if !errors.Is(results[0].Err(), invalid) {
		t.Errorf("results[0].Err() = %v, want cause %v", results[0].Err(), invalid)
	}
	var modErr *ModuleError
	if !errors.As(results[0].Err(), &modErr) || modErr.Project != model.ProjectCommons {
		t.Errorf("results[0].Err() should name commons, got %v", results[0].Err())
	}
	if !results[1].IsSuccess() || results[1].Project() != "core" {
		t.Errorf("results[1] = %s, want core success", results[1])
	}
	if !results[0].Value().IsZero() {
		t.Error("failed result must not carry a value")
	}
	if len(rec.CallsFor(buildsystem.OpPrepareVersion)) != 2 {
		t.Errorf("core was not attempted: %v", rec.Calls())
	}
	if !summary.HasFailures() || !errors.Is(summary.Err(), invalid) {
		t.Errorf("summary should report the failure: %v", summary.Err())
	}
}

func TestRunOrdered_MiddleFailure(t *testing.T) {
	t.Parallel()

	rec := testutil.NewRecorder()
	rec.FailOn("jpa", buildsystem.OpTriggerBuild, errors.New("compilation failure"))
	projects := []model.Project{model.ProjectCommons, "jpa", "mongodb", "rest"}
	e := newExecutor(t, rec, projects)

	summary, err := RunOrdered(context.Background(), e, newTrain(t, projects...).Modules(),
		func(ctx context.Context, bs buildsystem.BuildSystem, mi model.ModuleIteration) (model.ModuleIteration, error) {
			return bs.TriggerBuild(ctx, mi)
		})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Len() != len(projects) || summary.Failures() != 1 || summary.Successes() != 3 {
		t.Errorf("summary = %s, want 3 successes and 1 failure", summary)
	}
	called := make([]model.Project, 0, len(projects))
	for _, c := range rec.Calls() {
		called = append(called, c.Project)
	}
	if !slices.Equal(called, projects) {
		t.Errorf("call order = %v, want %v", called, projects)
	}
}

func TestRunOrdered_NoPluginRegistered(t *testing.T) {
	t.Parallel()

	rec := testutil.NewRecorder()
	e := newExecutor(t, rec, []model.Project{model.ProjectCommons})
	var invoked atomic.Int32

	summary, err := RunOrdered(context.Background(), e, newTrain(t, model.ProjectCommons, "redis").Modules(),
		func(ctx context.Context, bs buildsystem.BuildSystem, mi model.ModuleIteration) (model.ModuleIteration, error) {
			invoked.Add(1)
			return prepareVersion(ctx, bs, mi)
		})
	if err != nil {
		t.Fatal(err)
	}

	r := summary.Results()[1]
	var notFound *buildsystem.NoPluginRegisteredError
	if !errors.As(r.Err(), &notFound) || notFound.Project != "redis" {
		t.Fatalf("redis result error = %v, want NoPluginRegisteredError naming redis", r.Err())
	}
	if invoked.Load() != 1 {
		t.Errorf("operation invoked %d times, want 1 (commons only)", invoked.Load())
	}
}

func TestRunOrdered_ToolchainNotFound(t *testing.T) {
	t.Parallel()

	rec := testutil.NewRecorder()
	reg, err := rec.Registry("jpa")
	if err != nil {
		t.Fatal(err)
	}
	e, err := New(reg, toolchain.ConfigDetector{})
	if err != nil {
		t.Fatal(err)
	}

	summary, err := RunOrdered(context.Background(), e, newTrain(t, "jpa").Modules(), prepareVersion)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(summary.Err(), toolchain.ErrToolchainNotFound) {
		t.Errorf("Err() = %v, want ErrToolchainNotFound", summary.Err())
	}
	if len(rec.Calls()) != 0 {
		t.Errorf("plugin called without a toolchain: %v", rec.Calls())
	}
}

func TestRunOrdered_DeadlineSkipsRemaining(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := testutil.NewRecorder()
	rec.SetHook(func(opCtx context.Context, _ testutil.Call) error {
		cancel()
		if opCtx.Err() != nil {
			return errors.New("in-flight operation saw cancellation")
		}
		return nil
	})
	projects := []model.Project{model.ProjectCommons, "jpa", "rest"}
	e := newExecutor(t, rec, projects)

	summary, err := RunOrdered(ctx, e, newTrain(t, projects...).Modules(), prepareVersion)
	if err != nil {
		t.Fatal(err)
	}

	results := summary.Results()
	if !results[0].IsSuccess() {
		t.Errorf("in-flight commons = %s, want success", results[0])
	}
	for _, r := range results[1:] {
		if !r.IsSkipped() || !errors.Is(r.Err(), ErrNotAttempted) || !errors.Is(r.Err(), context.Canceled) {
			t.Errorf("%s = %s (%v), want skipped", r.Project(), r.Outcome(), r.Err())
		}
	}
	if summary.Len() != 3 || summary.Skipped() != 2 {
		t.Errorf("summary = %s, want 3 results with 2 skipped", summary)
	}
}

func TestRunOrdered_PanicCaptured(t *testing.T) {
	t.Parallel()

	rec := testutil.NewRecorder()
	rec.SetHook(func(_ context.Context, c testutil.Call) error {
		if c.Project == model.ProjectCommons {
			panic("descriptor corrupted")
		}
		return nil
	})
	e := newExecutor(t, rec, []model.Project{model.ProjectCommons, "jpa"})

	summary, err := RunOrdered(context.Background(), e, newTrain(t, model.ProjectCommons, "jpa").Modules(), prepareVersion)
	if err != nil {
		t.Fatal(err)
	}
	var panicErr *OperationPanicError
	if !errors.As(summary.Results()[0].Err(), &panicErr) || panicErr.Value != "descriptor corrupted" {
		t.Fatalf("results[0].Err() = %v, want OperationPanicError", summary.Results()[0].Err())
	}
	if !summary.Results()[1].IsSuccess() {
		t.Errorf("jpa after panic = %s, want success", summary.Results()[1])
	}
}

func TestRunAnyOrder_AllSucceedSorted(t *testing.T) {
	t.Parallel()

	projects := []model.Project{"rest", "mongodb", "cassandra", "jpa", "redis", "neo4j"}
	rec := testutil.NewRecorder()
	e := newExecutor(t, rec, projects, WithParallelism(3))

	train := newTrain(t, projects...).Train()
	summary, err := RunAnyOrder(context.Background(), e, train.Modules,
		func(ctx context.Context, bs buildsystem.BuildSystem, m model.Module) (model.Module, error) {
			return bs.TriggerDistributionBuild(ctx, m)
		})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Len() != len(projects) || summary.Successes() != len(projects) {
		t.Fatalf("summary = %s, want %d successes", summary, len(projects))
	}
	want := slices.Clone(projects)
	slices.Sort(want)
	if got := projectsOf(summary); !slices.Equal(got, want) {
		t.Errorf("result order = %v, want sorted %v", got, want)
	}
	if len(summary.Values()) != len(projects) {
		t.Errorf("Values() len = %d, want %d", len(summary.Values()), len(projects))
	}
}

func TestRunAnyOrder_BoundedParallelism(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	rec := testutil.NewRecorder()
	rec.SetHook(func(context.Context, testutil.Call) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil
	})

	projects := []model.Project{"a", "b", "c", "d", "e", "f", "g", "h"}
	e := newExecutor(t, rec, projects, WithParallelism(2))

	summary, err := RunAnyOrder(context.Background(), e, newTrain(t, projects...).Modules(), prepareVersion)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Successes() != len(projects) {
		t.Fatalf("summary = %s", summary)
	}
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestRunAnyOrder_CanceledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := testutil.NewRecorder()
	e := newExecutor(t, rec, []model.Project{"jpa", "redis"})

	summary, err := RunAnyOrder(ctx, e, newTrain(t, "redis", "jpa").Modules(), prepareVersion)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped() != 2 || summary.Len() != 2 {
		t.Errorf("summary = %s, want 2 skipped", summary)
	}
	if len(rec.Calls()) != 0 {
		t.Errorf("calls after cancellation: %v", rec.Calls())
	}
}

func TestRunAnyOrder_FailureIsolated(t *testing.T) {
	t.Parallel()

	rec := testutil.NewRecorder()
	rec.FailOn("mongodb", buildsystem.OpTriggerPreReleaseCheck, errors.New("dependency convergence"))
	projects := []model.Project{"jpa", "mongodb", "redis"}
	e := newExecutor(t, rec, projects)

	summary, err := RunAnyOrder(context.Background(), e, newTrain(t, projects...).Modules(),
		func(ctx context.Context, bs buildsystem.BuildSystem, mi model.ModuleIteration) (model.ModuleIteration, error) {
			return bs.TriggerPreReleaseCheck(ctx, mi)
		})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Successes() != 2 || summary.Failures() != 1 {
		t.Fatalf("summary = %s, want 2 successes and 1 failure", summary)
	}
	if !summary.Results()[1].IsFailure() {
		t.Errorf("mongodb result = %s, want failure", summary.Results()[1])
	}
}

func TestPreconditions(t *testing.T) {
	t.Parallel()

	e := newExecutor(t, testutil.NewRecorder(), []model.Project{"jpa"})
	modules := newTrain(t, "jpa").Modules()

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name: "nil executor",
			run: func() error {
				_, err := RunOrdered(context.Background(), nil, modules, prepareVersion)
				return err
			},
			wantErr: ErrNilExecutor,
		},
		{
			name: "nil operation",
			run: func() error {
				_, err := RunAnyOrder[model.ModuleIteration, model.ModuleIteration](context.Background(), e, modules, nil)
				return err
			},
			wantErr: ErrNilOperation,
		},
		{
			name: "no subjects",
			run: func() error {
				_, err := RunOrdered(context.Background(), e, nil, prepareVersion)
				return err
			},
			wantErr: ErrNoSubjects,
		},
		{
			name: "invalid subject",
			run: func() error {
				_, err := RunOrdered(context.Background(), e, []model.ModuleIteration{{}}, prepareVersion)
				return err
			},
			wantErr: model.ErrInvalidProject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.run(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := New(nil, toolchain.ConfigDetector{}); !errors.Is(err, ErrNilResolver) {
		t.Errorf("New(nil resolver) error = %v", err)
	}
}

func TestRunSingle_FailsFast(t *testing.T) {
	t.Parallel()

	rec := testutil.NewRecorder()
	e := newExecutor(t, rec, []model.Project{"jpa"})
	ti := newTrain(t, "jpa", "redis")

	jpa, _ := ti.Module("jpa")
	if _, err := RunSingle(context.Background(), e, jpa, prepareVersion); err != nil {
		t.Fatalf("RunSingle(jpa) unexpected error: %v", err)
	}

	redis, _ := ti.Module("redis")
	_, err := RunSingle(context.Background(), e, redis, prepareVersion)
	if !errors.Is(err, buildsystem.ErrNoPluginRegistered) {
		t.Errorf("RunSingle(redis) error = %v, want ErrNoPluginRegistered", err)
	}
}

func TestElapsedUsesClock(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(time.Time{}).WithStep(time.Second)
	e := newExecutor(t, testutil.NewRecorder(), []model.Project{"jpa"}, WithClock(clock))

	summary, err := RunOrdered(context.Background(), e, newTrain(t, "jpa").Modules(), prepareVersion)
	if err != nil {
		t.Fatal(err)
	}
	if got := summary.Results()[0].Elapsed(); got != time.Second {
		t.Errorf("Elapsed() = %v, want 1s", got)
	}
}

func TestSummaryString(t *testing.T) {
	t.Parallel()

	ti := newTrain(t, model.ProjectCommons, "jpa", "redis")
	mods := ti.Modules()
	s := NewSummary(
		Succeeded(mods[0], "ok", 0),
		Failed[model.ModuleIteration, string](mods[1], errors.New("invalid version"), 0),
		Skipped[model.ModuleIteration, string](mods[2], context.DeadlineExceeded),
	)

	got := s.String()
	for _, want := range []string{"1 of 3 succeeded", "failed: jpa (invalid version)", "skipped: redis"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
	if !slices.Equal(s.Values(), []string{"ok"}) {
		t.Errorf("Values() = %v", s.Values())
	}
	if s.Complete() {
		t.Error("Complete() = true with failures")
	}
}
