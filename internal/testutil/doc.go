// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test doubles shared by the package tests: a
// controllable clock, a recording build system and small filesystem helpers.
package testutil
