// SPDX-License-Identifier: MPL-2.0

// Package toolchain detects the Java version a project must be built with.
//
// Detection sources, in the order the CLI chains them:
//   - explicit per-project entries from the configuration file
//   - a .java-version file in the project checkout
//   - the java= line of an .sdkmanrc file in the project checkout
//   - the configured default version
package toolchain
