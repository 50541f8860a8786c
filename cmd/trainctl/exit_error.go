// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

const (
	// ExitOK means every step succeeded.
	ExitOK = 0
	// ExitFailures means a release step or at least one module failed.
	ExitFailures = 1
	// ExitUsage means the invocation, the configuration or the train
	// descriptor was invalid and nothing was dispatched.
	ExitUsage = 2
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
