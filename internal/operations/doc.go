// SPDX-License-Identifier: MPL-2.0

// Package operations composes the executor, the plugin registry and the
// staging lifecycle into the verbs of the release process: preparing
// versions, building, deploying, staging and releasing a train.
package operations
