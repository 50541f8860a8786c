// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors: ActionableError carries the
// failed operation, the resource involved and suggestions, and the issue
// catalog holds Markdown guidance for the failures operators hit most.
package issue
