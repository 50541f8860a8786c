// SPDX-License-Identifier: MPL-2.0

// Package train loads release train descriptors written in CUE, YAML or TOML
// and orders their modules by declared dependencies.
package train
