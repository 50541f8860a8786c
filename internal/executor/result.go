// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"errors"
	"fmt"
	"time"

	"github.com/releasetrain/trainctl/internal/model"
)

const (
	// OutcomeSucceeded means the operation produced a value.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed means plugin resolution, toolchain detection or the operation failed.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means the subject was not attempted because the batch deadline passed.
	OutcomeSkipped Outcome = "skipped"
)

var (
	// ErrModuleFailed is wrapped by every ModuleError.
	ErrModuleFailed = errors.New("module failed")

	// ErrNotAttempted is wrapped by the error of a skipped result.
	ErrNotAttempted = errors.New("not attempted: deadline")
)

type (
	// Outcome classifies an ExecutionResult.
	Outcome string

	// Subject is what a batch iterates: a model.ModuleIteration or a model.Module.
	Subject interface {
		GetProject() model.Project
		String() string
	}

	// ExecutionResult is the immutable outcome of applying an operation to one
	// subject. It holds either a value or an error, never both.
	ExecutionResult[S Subject, T any] struct {
		subject S
		value   T
		err     error
		outcome Outcome
		elapsed time.Duration
	}

	// ModuleError names the subject a failure originated from.
	ModuleError struct {
		Project model.Project
		Subject string
		Cause   error
	}

	// NotAttemptedError is the error of a skipped result.
	NotAttemptedError struct {
		Project model.Project
		Cause   error
	}

	// OperationPanicError captures a panic raised by an operation.
	OperationPanicError struct {
		Project model.Project
		Value   any
	}
)

// Error implements the error interface.
func (e *ModuleError) Error() string {
	return fmt.Sprintf("%s: %v", e.Subject, e.Cause)
}

// Unwrap exposes ErrModuleFailed and the cause.
func (e *ModuleError) Unwrap() []error { return []error{ErrModuleFailed, e.Cause} }

// Error implements the error interface.
func (e *NotAttemptedError) Error() string {
	return fmt.Sprintf("%s not attempted: %v", e.Project, e.Cause)
}

// Unwrap exposes ErrNotAttempted and the context error.
func (e *NotAttemptedError) Unwrap() []error { return []error{ErrNotAttempted, e.Cause} }

// Error implements the error interface.
func (e *OperationPanicError) Error() string {
	return fmt.Sprintf("operation panicked for %s: %v", e.Project, e.Value)
}

// Succeeded creates a successful result.
func Succeeded[S Subject, T any](subject S, value T, elapsed time.Duration) ExecutionResult[S, T] {
	return ExecutionResult[S, T]{subject: subject, value: value, outcome: OutcomeSucceeded, elapsed: elapsed}
}

// Failed creates a failed result. The cause is wrapped in a *ModuleError unless
// it already is one.
func Failed[S Subject, T any](subject S, cause error, elapsed time.Duration) ExecutionResult[S, T] {
	var modErr *ModuleError
	if !errors.As(cause, &modErr) {
		cause = &ModuleError{Project: subject.GetProject(), Subject: subject.String(), Cause: cause}
	}
	return ExecutionResult[S, T]{subject: subject, err: cause, outcome: OutcomeFailed, elapsed: elapsed}
}

// Skipped creates a result for a subject that was never attempted.
func Skipped[S Subject, T any](subject S, cause error) ExecutionResult[S, T] {
	return ExecutionResult[S, T]{
		subject: subject,
		err:     &NotAttemptedError{Project: subject.GetProject(), Cause: cause},
		outcome: OutcomeSkipped,
	}
}

// Subject returns the subject the operation was applied to.
func (r ExecutionResult[S, T]) Subject() S { return r.subject }

// Project returns the subject's project.
func (r ExecutionResult[S, T]) Project() model.Project { return r.subject.GetProject() }

// Value returns the produced value; the zero value for failed or skipped results.
func (r ExecutionResult[S, T]) Value() T { return r.value }

// Err returns the failure; nil for successful results.
func (r ExecutionResult[S, T]) Err() error { return r.err }

// Outcome returns the result classification.
func (r ExecutionResult[S, T]) Outcome() Outcome { return r.outcome }

// Elapsed returns how long the attempt took.
func (r ExecutionResult[S, T]) Elapsed() time.Duration { return r.elapsed }

// IsSuccess reports whether the operation produced a value.
func (r ExecutionResult[S, T]) IsSuccess() bool { return r.outcome == OutcomeSucceeded }

// IsFailure reports whether the attempt failed.
func (r ExecutionResult[S, T]) IsFailure() bool { return r.outcome == OutcomeFailed }

// IsSkipped reports whether the subject was not attempted.
func (r ExecutionResult[S, T]) IsSkipped() bool { return r.outcome == OutcomeSkipped }

// String renders the result for logs.
func (r ExecutionResult[S, T]) String() string {
	switch r.outcome {
	case OutcomeSucceeded:
		return fmt.Sprintf("%s: succeeded", r.subject)
	case OutcomeSkipped:
		return fmt.Sprintf("%s: skipped", r.subject)
	default:
		var modErr *ModuleError
		if errors.As(r.err, &modErr) {
			return fmt.Sprintf("%s: failed: %v", r.subject, modErr.Cause)
		}
		return fmt.Sprintf("%s: failed: %v", r.subject, r.err)
	}
}
