// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/releasetrain/trainctl/internal/buildsystem"
	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/toolchain"
)

// DefaultParallelism is the worker count of RunAnyOrder when none is configured.
const DefaultParallelism = 4

var (
	// ErrNilExecutor is returned when a dispatch function receives a nil Executor.
	ErrNilExecutor = errors.New("executor must not be nil")
	// ErrNilOperation is returned when a dispatch function receives a nil operation.
	ErrNilOperation = errors.New("operation must not be nil")
	// ErrNoSubjects is returned when a batch has nothing to process.
	ErrNoSubjects = errors.New("batch has no subjects")
	// ErrNilResolver is returned by New without a resolver.
	ErrNilResolver = errors.New("plugin resolver must not be nil")
	// ErrNilDetector is returned by New without a toolchain detector.
	ErrNilDetector = errors.New("toolchain detector must not be nil")
)

type (
	// Operation is applied to the version-bound build system of one subject.
	Operation[S Subject, T any] func(ctx context.Context, bs buildsystem.BuildSystem, subject S) (T, error)

	// Resolver looks up the plugin of a project. *buildsystem.Registry implements it.
	Resolver interface {
		Resolve(project model.Project) (buildsystem.BuildSystem, error)
	}

	// Clock supplies timestamps for result durations.
	Clock interface {
		Now() time.Time
	}

	// Option configures an Executor.
	Option func(*Executor)

	// Executor binds plugins to toolchains and dispatches batches.
	// It holds no per-batch state and is safe for concurrent use.
	Executor struct {
		resolver    Resolver
		detector    toolchain.Detector
		parallelism int
		clock       Clock
		logger      *slog.Logger
	}

	// InvalidSubjectError is returned when a batch contains a subject with an invalid project.
	InvalidSubjectError struct {
		Index int
		Cause error
	}

	systemClock struct{}
)

// Error implements the error interface.
func (e *InvalidSubjectError) Error() string {
	return fmt.Sprintf("subject %d: %v", e.Index, e.Cause)
}

// Unwrap returns the validation error.
func (e *InvalidSubjectError) Unwrap() error { return e.Cause }

func (systemClock) Now() time.Time { return time.Now() }

// WithParallelism sets the worker count of RunAnyOrder. Values below 1 are ignored.
func WithParallelism(n int) Option {
	return func(e *Executor) {
		if n >= 1 {
			e.parallelism = n
		}
	}
}

// WithClock replaces the clock used to time attempts.
func WithClock(c Clock) Option {
	return func(e *Executor) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Executor.
func New(resolver Resolver, detector toolchain.Detector, opts ...Option) (*Executor, error) {
	if resolver == nil {
		return nil, ErrNilResolver
	}
	if detector == nil {
		return nil, ErrNilDetector
	}
	e := &Executor{
		resolver:    resolver,
		detector:    detector,
		parallelism: DefaultParallelism,
		clock:       systemClock{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Parallelism returns the worker count used by RunAnyOrder.
func (e *Executor) Parallelism() int { return e.parallelism }

// DetectJavaVersion returns the toolchain project must be built with.
func (e *Executor) DetectJavaVersion(ctx context.Context, project model.Project) (toolchain.JavaVersion, error) {
	return e.detector.Detect(ctx, project)
}

// Bind resolves the plugin of project and binds it to the detected toolchain.
func (e *Executor) Bind(ctx context.Context, project model.Project) (buildsystem.BuildSystem, error) {
	bs, err := e.resolver.Resolve(project)
	if err != nil {
		return nil, err
	}
	v, err := e.DetectJavaVersion(ctx, project)
	if err != nil {
		return nil, err
	}
	return bs.WithJavaVersion(v), nil
}

// RunOrdered applies op to every subject in the given order, one at a time.
// A failing subject never prevents later subjects from being attempted.
func RunOrdered[S Subject, T any](ctx context.Context, e *Executor, subjects []S, op Operation[S, T]) (Summary[S, T], error) {
	if err := checkBatch(e, subjects, op); err != nil {
		return Summary[S, T]{}, err
	}

	results := make([]ExecutionResult[S, T], 0, len(subjects))
	for _, s := range subjects {
		if err := ctx.Err(); err != nil {
			results = append(results, Skipped[S, T](s, err))
			continue
		}
		results = append(results, attempt(ctx, e, s, op))
	}

	summary := Summary[S, T]{results: results}
	e.logger.Debug("ordered batch finished", "subjects", len(subjects), "failures", summary.Failures(), "skipped", summary.Skipped())
	return summary, nil
}

// RunAnyOrder applies op to every subject on up to Parallelism workers. Each
// worker resolves and binds its own plugin handle. Results are sorted by project.
func RunAnyOrder[S Subject, T any](ctx context.Context, e *Executor, subjects []S, op Operation[S, T]) (Summary[S, T], error) {
	if err := checkBatch(e, subjects, op); err != nil {
		return Summary[S, T]{}, err
	}

	results := make([]ExecutionResult[S, T], len(subjects))
	sem := semaphore.NewWeighted(int64(e.parallelism))
	var wg sync.WaitGroup

	for i, s := range subjects {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = Skipped[S, T](s, err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			if err := ctx.Err(); err != nil {
				results[i] = Skipped[S, T](s, err)
				return
			}
			results[i] = attempt(ctx, e, s, op)
		}()
	}
	wg.Wait()

	slices.SortStableFunc(results, func(a, b ExecutionResult[S, T]) int {
		return cmp.Compare(a.Project(), b.Project())
	})

	summary := Summary[S, T]{results: results}
	e.logger.Debug("any-order batch finished", "subjects", len(subjects), "parallelism", e.parallelism,
		"failures", summary.Failures(), "skipped", summary.Skipped())
	return summary, nil
}

// RunSingle binds the plugin of subject and applies op. Unlike the batch
// functions every failure is returned to the caller.
func RunSingle[S Subject, T any](ctx context.Context, e *Executor, subject S, op Operation[S, T]) (T, error) {
	var zero T
	if err := checkBatch(e, []S{subject}, op); err != nil {
		return zero, err
	}
	bs, err := e.Bind(ctx, subject.GetProject())
	if err != nil {
		return zero, err
	}
	return op(ctx, bs, subject)
}

func checkBatch[S Subject, T any](e *Executor, subjects []S, op Operation[S, T]) error {
	if e == nil {
		return ErrNilExecutor
	}
	if op == nil {
		return ErrNilOperation
	}
	if len(subjects) == 0 {
		return ErrNoSubjects
	}
	for i, s := range subjects {
		if ok, errs := s.GetProject().IsValid(); !ok {
			return &InvalidSubjectError{Index: i, Cause: errors.Join(errs...)}
		}
	}
	return nil
}

// attempt produces the result of one subject. The operation runs detached from
// ctx cancellation so an in-flight remote call is never interrupted.
func attempt[S Subject, T any](ctx context.Context, e *Executor, s S, op Operation[S, T]) (result ExecutionResult[S, T]) {
	start := e.clock.Now()
	project := s.GetProject()

	defer func() {
		if v := recover(); v != nil {
			e.logger.Error("operation panicked", "project", project, "panic", v, "stack", string(debug.Stack()))
			result = Failed[S, T](s, &OperationPanicError{Project: project, Value: v}, e.clock.Now().Sub(start))
		}
	}()

	detached := context.WithoutCancel(ctx)
	bs, err := e.Bind(detached, project)
	if err != nil {
		e.logger.Debug("plugin binding failed", "project", project, "error", err)
		return Failed[S, T](s, err, e.clock.Now().Sub(start))
	}

	value, err := op(detached, bs, s)
	elapsed := e.clock.Now().Sub(start)
	if err != nil {
		e.logger.Debug("operation failed", "project", project, "error", err)
		return Failed[S, T](s, err, elapsed)
	}
	return Succeeded(s, value, elapsed)
}
