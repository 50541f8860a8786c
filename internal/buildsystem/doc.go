// SPDX-License-Identifier: MPL-2.0

// Package buildsystem defines the contract every build-system plugin fulfils and
// the registry that maps a project to its one plugin.
//
// Plugins are value-like: WithJavaVersion returns a new handle bound to a
// toolchain and never changes the receiver, so handles can be shared between
// concurrent workers.
package buildsystem
