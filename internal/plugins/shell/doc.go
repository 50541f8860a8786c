// SPDX-License-Identifier: MPL-2.0

// Package shell implements buildsystem.BuildSystem by running configured POSIX
// scripts with the embedded mvdan/sh interpreter. Scripts receive the release
// context through environment variables (TRAIN, ITERATION, PROJECT, VERSION,
// PHASE, VERSION_TO_SET, JAVA_VERSION, JAVA_HOME, STAGING_REPOSITORY_ID).
package shell
