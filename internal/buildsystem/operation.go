// SPDX-License-Identifier: MPL-2.0

package buildsystem

import (
	"errors"
	"fmt"

	"github.com/releasetrain/trainctl/internal/model"
)

const (
	OpUpdateProjectDescriptors    Operation = "update-descriptors"
	OpPrepareVersion              Operation = "prepare-version"
	OpTriggerBuild                Operation = "build"
	OpTriggerDocumentationBuild   Operation = "docs"
	OpTriggerDistributionBuild    Operation = "distribute"
	OpTriggerPreReleaseCheck      Operation = "pre-release-check"
	OpDeploy                      Operation = "deploy"
	OpSmokeTests                  Operation = "smoke-tests"
	OpOpen                        Operation = "open"
	OpClose                       Operation = "close"
	OpRelease                     Operation = "release"
	OpVerify                      Operation = "verify"
	OpVerifyStagingAuthentication Operation = "verify-staging-authentication"
)

var (
	// ErrInvalidOperation is the sentinel error wrapped by InvalidOperationError.
	ErrInvalidOperation = errors.New("invalid build system operation")

	// ErrOperationFailed is wrapped by every OperationError.
	ErrOperationFailed = errors.New("build system operation failed")

	allOperations = []Operation{
		OpUpdateProjectDescriptors, OpPrepareVersion, OpTriggerBuild, OpTriggerDocumentationBuild,
		OpTriggerDistributionBuild, OpTriggerPreReleaseCheck, OpDeploy, OpSmokeTests,
		OpOpen, OpClose, OpRelease, OpVerify, OpVerifyStagingAuthentication,
	}
)

type (
	// Operation names one step a build system performs. The names double as
	// script keys of the shell build system.
	Operation string

	// InvalidOperationError is returned when an Operation value is unknown.
	InvalidOperationError struct {
		Value Operation
	}

	// OperationError is a failure surfaced by a plugin while performing a step.
	OperationError struct {
		Project   model.Project
		Operation Operation
		Cause     error
	}
)

// Error implements the error interface.
func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid build system operation %q", e.Value)
}

// Unwrap returns ErrInvalidOperation for errors.Is() compatibility.
func (e *InvalidOperationError) Unwrap() error { return ErrInvalidOperation }

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.Project == "" {
		return fmt.Sprintf("%s failed: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("%s failed for %s: %v", e.Operation, e.Project, e.Cause)
}

// Unwrap exposes both ErrOperationFailed and the cause.
func (e *OperationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrOperationFailed}
	}
	return []error{ErrOperationFailed, e.Cause}
}

// String returns the operation name.
func (o Operation) String() string { return string(o) }

// Validate returns nil when o is a known operation.
func (o Operation) Validate() error {
	for _, known := range allOperations {
		if o == known {
			return nil
		}
	}
	return &InvalidOperationError{Value: o}
}

// Operations returns every known operation in declaration order.
func Operations() []Operation {
	out := make([]Operation, len(allOperations))
	copy(out, allOperations)
	return out
}
