// SPDX-License-Identifier: MPL-2.0

// Package executor dispatches an operation to the build system of every
// module of a batch and aggregates the outcomes into a Summary.
//
// Two policies exist. RunOrdered processes subjects strictly in the given
// (dependency) order, one after the other. RunAnyOrder runs them on a bounded
// worker pool and sorts the results by project. Neither stops at the first
// failure: every subject yields exactly one ExecutionResult. The error return
// of both functions is reserved for precondition violations.
//
// When the context is done, subjects that have not started are recorded as
// skipped. Operations already running keep going; they receive a context that
// is detached from the batch cancellation.
package executor
