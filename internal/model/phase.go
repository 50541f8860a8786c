// SPDX-License-Identifier: MPL-2.0

package model

import (
	"errors"
	"fmt"
)

const (
	// PhasePrepare switches modules to the release versions of the iteration.
	PhasePrepare Phase = "prepare"
	// PhaseRelease is used while the release artifacts are built and deployed.
	PhaseRelease Phase = "release"
	// PhaseCleanup switches modules back to the next development (snapshot) versions.
	PhaseCleanup Phase = "cleanup"
)

// ErrInvalidPhase is the sentinel error wrapped by InvalidPhaseError.
var ErrInvalidPhase = errors.New("invalid phase")

type (
	// Phase is the step of the release process a descriptor update belongs to.
	Phase string

	// InvalidPhaseError is returned when a Phase value is not recognized.
	InvalidPhaseError struct {
		Value Phase
	}
)

// Error implements the error interface.
func (e *InvalidPhaseError) Error() string {
	return fmt.Sprintf("invalid phase %q (valid: %s, %s, %s)", e.Value, PhasePrepare, PhaseRelease, PhaseCleanup)
}

// Unwrap returns ErrInvalidPhase for errors.Is() compatibility.
func (e *InvalidPhaseError) Unwrap() error { return ErrInvalidPhase }

// String returns the string representation of the Phase.
func (p Phase) String() string { return string(p) }

// IsValid returns whether the Phase is one of the defined phases.
func (p Phase) IsValid() (bool, []error) {
	switch p {
	case PhasePrepare, PhaseRelease, PhaseCleanup:
		return true, nil
	default:
		return false, []error{&InvalidPhaseError{Value: p}}
	}
}
