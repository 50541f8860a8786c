// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"errors"
	"fmt"
)

const (
	// StateAbsent means no staging repository exists (or none is needed).
	StateAbsent State = iota
	// StateOpen means the repository exists and accepts artifact uploads.
	StateOpen
	// StateClosed means the repository is sealed and awaits promotion.
	StateClosed
	// StateReleased is terminal: the artifacts are public.
	StateReleased
)

var (
	// ErrInvalidState is returned when a State value is not one of the defined states.
	ErrInvalidState = errors.New("invalid staging state")
	// ErrInvalidTransition is the sentinel error wrapped by InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid staging transition")
)

type (
	// State is the lifecycle state of a staging repository.
	State int32

	// InvalidStateError is returned when a State value is not recognized.
	InvalidStateError struct {
		Value State
	}

	// InvalidTransitionError is returned when an operation is not allowed in the
	// current state. The remote service is never called in that case.
	InvalidTransitionError struct {
		Operation  string
		State      State
		Repository Repository
	}
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Validate returns nil if the State is one of the defined lifecycle states.
func (s State) Validate() error {
	switch s {
	case StateAbsent, StateOpen, StateClosed, StateReleased:
		return nil
	default:
		return &InvalidStateError{Value: s}
	}
}

// IsTerminal reports whether no further operation is valid.
func (s State) IsTerminal() bool { return s == StateReleased }

// Error implements the error interface for InvalidStateError.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid staging state %d (valid: 0=absent, 1=open, 2=closed, 3=released)", e.Value)
}

// Unwrap returns ErrInvalidState for errors.Is() compatibility.
func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// Error implements the error interface for InvalidTransitionError.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s staging repository %s in state %s", e.Operation, e.Repository, e.State)
}

// Unwrap returns ErrInvalidTransition for errors.Is() compatibility.
func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }
