// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "trainctl",
		Short: "Drive the release process of a release train",
		Long: TitleStyle.Render("trainctl") + SubtitleStyle.Render(" - release train orchestration") + `

trainctl runs the steps of a release over every module of a train: version
preparation, builds, documentation, deployment to a staging repository,
smoke tests and promotion.

` + SubtitleStyle.Render("Examples:") + `
  trainctl prepare --train trains/2024.1.cue --iteration RC1 --phase prepare
  trainctl build --train trains/2024.1.cue --iteration RC1
  trainctl release --train trains/2024.1.cue --iteration GA
  trainctl config show`,
		SilenceUsage: true,
	}
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $HOME/.config/trainctl/config.cue)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newPrepareCommand(app, flags),
		newUpdateDescriptorsCommand(app, flags),
		newBuildCommand(app, flags),
		newDocsCommand(app, flags),
		newPreReleaseChecksCommand(app, flags),
		newDistributeCommand(app, flags),
		newReleaseCommand(app, flags),
		newVerifyCommand(app, flags),
		newVerifyStagingCommand(app, flags),
		newStagingCommand(app, flags),
		newConfigCommand(app, flags),
		newExplainCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI with production dependencies. It is called by main.main().
func Execute() {
	root := NewRootCommand(NewApp(Dependencies{}))
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitUsage)
	}
}
