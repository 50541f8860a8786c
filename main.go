// SPDX-License-Identifier: MPL-2.0

// trainctl drives the release process of a release train.
package main

import cmd "github.com/releasetrain/trainctl/cmd/trainctl"

func main() {
	cmd.Execute()
}
