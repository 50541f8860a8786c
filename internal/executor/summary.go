// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Summary is the ordered, read-only sequence of results of one batch.
type Summary[S Subject, T any] struct {
	results []ExecutionResult[S, T]
}

// NewSummary creates a Summary over results, which are copied.
func NewSummary[S Subject, T any](results ...ExecutionResult[S, T]) Summary[S, T] {
	out := make([]ExecutionResult[S, T], len(results))
	copy(out, results)
	return Summary[S, T]{results: out}
}

// Results returns a copy of the results in processing order.
func (s Summary[S, T]) Results() []ExecutionResult[S, T] {
	out := make([]ExecutionResult[S, T], len(s.results))
	copy(out, s.results)
	return out
}

// Len returns the number of attempted subjects.
func (s Summary[S, T]) Len() int { return len(s.results) }

// Successes returns the number of successful results.
func (s Summary[S, T]) Successes() int { return s.count(OutcomeSucceeded) }

// Failures returns the number of failed results.
func (s Summary[S, T]) Failures() int { return s.count(OutcomeFailed) }

// Skipped returns the number of subjects not attempted.
func (s Summary[S, T]) Skipped() int { return s.count(OutcomeSkipped) }

// HasFailures reports whether any subject failed.
func (s Summary[S, T]) HasFailures() bool { return s.Failures() > 0 }

// Complete reports whether every subject succeeded.
func (s Summary[S, T]) Complete() bool { return s.Successes() == len(s.results) }

// Values returns the values of successful results in order.
func (s Summary[S, T]) Values() []T {
	out := make([]T, 0, len(s.results))
	for _, r := range s.results {
		if r.IsSuccess() {
			out = append(out, r.value)
		}
	}
	return out
}

// Err joins the errors of failed and skipped results; nil when every subject succeeded.
func (s Summary[S, T]) Err() error {
	var errs []error
	for _, r := range s.results {
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	return errors.Join(errs...)
}

// Elapsed returns the summed duration of all attempts.
func (s Summary[S, T]) Elapsed() time.Duration {
	var total time.Duration
	for _, r := range s.results {
		total += r.elapsed
	}
	return total
}

// String renders a one-line account, e.g.
// "2 of 3 succeeded; failed: jpa (invalid version)".
func (s Summary[S, T]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d succeeded", s.Successes(), len(s.results))

	var failed, skipped []string
	for _, r := range s.results {
		switch r.outcome {
		case OutcomeFailed:
			cause := r.err
			var modErr *ModuleError
			if errors.As(r.err, &modErr) {
				cause = modErr.Cause
			}
			failed = append(failed, fmt.Sprintf("%s (%v)", r.Project(), cause))
		case OutcomeSkipped:
			skipped = append(skipped, r.Project().String())
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(&b, "; failed: %s", strings.Join(failed, ", "))
	}
	if len(skipped) > 0 {
		fmt.Fprintf(&b, "; skipped: %s", strings.Join(skipped, ", "))
	}
	return b.String()
}

func (s Summary[S, T]) count(o Outcome) int {
	n := 0
	for _, r := range s.results {
		if r.outcome == o {
			n++
		}
	}
	return n
}
