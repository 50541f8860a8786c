// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands of trainctl.
//
// The root command wires configuration, the plugin registry, the executor and
// the operations facade together; every verb command drives one release step
// over a train descriptor.
package cmd
