// SPDX-License-Identifier: MPL-2.0

package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// ProjectBuild is the build orchestrator project. It owns verification, the
	// staging repository and the smoke tests for a whole train.
	ProjectBuild Project = "build"
	// ProjectBOM is the bill-of-materials project.
	ProjectBOM Project = "bom"
	// ProjectCommons is the shared foundation project every other module depends on.
	ProjectCommons Project = "commons"
)

// ErrInvalidProject is the sentinel error wrapped by InvalidProjectError.
var ErrInvalidProject = errors.New("invalid project")

var projectPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

type (
	// Project identifies one module of a release train (e.g., "commons", "jpa").
	Project string

	// InvalidProjectError is returned when a Project value is blank or malformed.
	// It wraps ErrInvalidProject for errors.Is() compatibility.
	InvalidProjectError struct {
		Value Project
	}
)

// Error implements the error interface.
func (e *InvalidProjectError) Error() string {
	return fmt.Sprintf("invalid project %q (must match %s)", e.Value, projectPattern.String())
}

// Unwrap returns ErrInvalidProject so callers can use errors.Is for programmatic detection.
func (e *InvalidProjectError) Unwrap() error { return ErrInvalidProject }

// String returns the string representation of the Project.
func (p Project) String() string { return string(p) }

// IsValid returns whether the Project is non-blank and matches the identifier pattern.
func (p Project) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" || !projectPattern.MatchString(string(p)) {
		return false, []error{&InvalidProjectError{Value: p}}
	}
	return true, nil
}
