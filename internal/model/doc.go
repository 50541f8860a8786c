// SPDX-License-Identifier: MPL-2.0

// Package model defines the release train domain values consumed by the executor
// and the build operations facade.
//
// A Train is an ordered list of Modules (dependency order). A TrainIteration binds a
// Train to one Iteration (M1, RC1, GA, SR1, ...) and exposes one ModuleIteration per
// module, preserving train order. All values are immutable once constructed.
package model
