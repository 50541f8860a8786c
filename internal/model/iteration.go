// SPDX-License-Identifier: MPL-2.0

package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// IterationMilestone is a preview milestone (M1, M2, ...).
	IterationMilestone IterationKind = iota + 1
	// IterationReleaseCandidate is a preview release candidate (RC1, RC2, ...).
	IterationReleaseCandidate
	// IterationGA is the general availability release of a train.
	IterationGA
	// IterationServiceRelease is a maintenance release after GA (SR1, SR2, ...).
	IterationServiceRelease
)

// ErrInvalidIteration is the sentinel error wrapped by InvalidIterationError.
var ErrInvalidIteration = errors.New("invalid iteration")

type (
	// IterationKind classifies an Iteration.
	IterationKind int

	// Iteration identifies one release point of a train (M1, RC1, GA, SR3).
	// The zero value is not a valid iteration.
	Iteration struct {
		kind   IterationKind
		number int
	}

	// InvalidIterationError is returned when an iteration name cannot be parsed.
	InvalidIterationError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidIterationError) Error() string {
	return fmt.Sprintf("invalid iteration %q (expected M<n>, RC<n>, GA or SR<n>)", e.Value)
}

// Unwrap returns ErrInvalidIteration for errors.Is() compatibility.
func (e *InvalidIterationError) Unwrap() error { return ErrInvalidIteration }

// GA returns the general availability iteration.
func GA() Iteration { return Iteration{kind: IterationGA} }

// Milestone returns the n-th milestone iteration.
func Milestone(n int) Iteration { return Iteration{kind: IterationMilestone, number: n} }

// ReleaseCandidate returns the n-th release candidate iteration.
func ReleaseCandidate(n int) Iteration { return Iteration{kind: IterationReleaseCandidate, number: n} }

// ServiceRelease returns the n-th service release iteration.
func ServiceRelease(n int) Iteration { return Iteration{kind: IterationServiceRelease, number: n} }

// ParseIteration parses an iteration name. Matching is case-insensitive.
func ParseIteration(s string) (Iteration, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "GA" {
		return GA(), nil
	}

	var kind IterationKind
	var digits string
	switch {
	case strings.HasPrefix(name, "RC"):
		kind, digits = IterationReleaseCandidate, name[2:]
	case strings.HasPrefix(name, "SR"):
		kind, digits = IterationServiceRelease, name[2:]
	case strings.HasPrefix(name, "M"):
		kind, digits = IterationMilestone, name[1:]
	default:
		return Iteration{}, &InvalidIterationError{Value: s}
	}

	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return Iteration{}, &InvalidIterationError{Value: s}
	}
	return Iteration{kind: kind, number: n}, nil
}

// Kind returns the iteration kind.
func (i Iteration) Kind() IterationKind { return i.kind }

// IsZero reports whether i is the zero Iteration.
func (i Iteration) IsZero() bool { return i.kind == 0 }

// IsPublic reports whether artifacts of this iteration are published through the
// public staging service. GA and service releases are public; previews are not.
func (i Iteration) IsPublic() bool {
	return i.kind == IterationGA || i.kind == IterationServiceRelease
}

// IsPreview reports whether this is a milestone or release candidate.
func (i Iteration) IsPreview() bool {
	return i.kind == IterationMilestone || i.kind == IterationReleaseCandidate
}

// IsServiceRelease reports whether this is a maintenance release.
func (i Iteration) IsServiceRelease() bool { return i.kind == IterationServiceRelease }

// VersionQualifier returns the qualifier appended to release versions of this
// iteration ("M1", "RC2"). GA and service releases have none.
func (i Iteration) VersionQualifier() string {
	if i.IsPreview() {
		return i.String()
	}
	return ""
}

// String returns the iteration name (e.g., "RC1").
func (i Iteration) String() string {
	switch i.kind {
	case IterationGA:
		return "GA"
	case IterationMilestone:
		return "M" + strconv.Itoa(i.number)
	case IterationReleaseCandidate:
		return "RC" + strconv.Itoa(i.number)
	case IterationServiceRelease:
		return "SR" + strconv.Itoa(i.number)
	default:
		return ""
	}
}
