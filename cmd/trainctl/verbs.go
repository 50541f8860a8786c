// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/operations"
)

// moduleVerb runs a per-module step over the whole train iteration.
type moduleVerb func(ops *operations.Operations, ctx context.Context, ti model.TrainIteration) (operations.ModuleSummary, error)

func newModuleVerbCommand(app *App, flags *rootFlags, use, short, title string, verb moduleVerb) *cobra.Command {
	tf := &trainFlags{}
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withTrain(cmd, flags, tf, nil, func(ctx context.Context, s *session, ti model.TrainIteration) error {
				summary, err := verb(s.ops, ctx, ti)
				if err != nil {
					return err
				}
				renderSummary(app.stdout, fmt.Sprintf("%s: %s", title, ti), summary)
				return summaryError(summary)
			})
		},
	}
	addTrainFlags(c, tf)
	return c
}

func newPhaseVerbCommand(app *App, flags *rootFlags, use, short, title string,
	verb func(ops *operations.Operations, ctx context.Context, ti model.TrainIteration, phase model.Phase) (operations.ModuleSummary, error),
) *cobra.Command {
	var phase string
	c := newModuleVerbCommand(app, flags, use, short, title,
		func(ops *operations.Operations, ctx context.Context, ti model.TrainIteration) (operations.ModuleSummary, error) {
			return verb(ops, ctx, ti, model.Phase(phase))
		})
	c.Flags().StringVarP(&phase, "phase", "p", string(model.PhasePrepare), "release phase (prepare, release or cleanup)")
	c.PreRunE = func(cmd *cobra.Command, _ []string) error {
		if ok, errs := model.Phase(phase).IsValid(); !ok {
			return app.fail(cmd, flags, ExitUsage, errs[0])
		}
		return nil
	}
	return c
}

func newPrepareCommand(app *App, flags *rootFlags) *cobra.Command {
	return newPhaseVerbCommand(app, flags, "prepare", "Set the versions of every module for a phase", "Prepare versions",
		(*operations.Operations).PrepareVersions)
}

func newUpdateDescriptorsCommand(app *App, flags *rootFlags) *cobra.Command {
	return newPhaseVerbCommand(app, flags, "update-descriptors", "Rewrite the project descriptors of every module", "Update project descriptors",
		(*operations.Operations).UpdateProjectDescriptors)
}

func newBuildCommand(app *App, flags *rootFlags) *cobra.Command {
	return newModuleVerbCommand(app, flags, "build", "Build every module in dependency order", "Build",
		(*operations.Operations).Build)
}

func newDocsCommand(app *App, flags *rootFlags) *cobra.Command {
	return newModuleVerbCommand(app, flags, "docs", "Build the reference documentation of the train", "Documentation build",
		(*operations.Operations).BuildDocumentation)
}

func newPreReleaseChecksCommand(app *App, flags *rootFlags) *cobra.Command {
	return newModuleVerbCommand(app, flags, "pre-release-checks", "Run the pre-release checks of every module", "Pre-release checks",
		(*operations.Operations).RunPreReleaseChecks)
}

func newDistributeCommand(app *App, flags *rootFlags) *cobra.Command {
	tf := &trainFlags{}
	c := &cobra.Command{
		Use:   "distribute",
		Short: "Build and upload the distribution bundles of the train",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withTrain(cmd, flags, tf, nil, func(ctx context.Context, s *session, ti model.TrainIteration) error {
				summary, err := s.ops.DistributeIteration(ctx, ti)
				if err != nil {
					return err
				}
				renderSummary(app.stdout, fmt.Sprintf("Distribution build: %s", ti), summary)
				return summaryError(summary)
			})
		},
	}
	addTrainFlags(c, tf)
	return c
}

func newReleaseCommand(app *App, flags *rootFlags) *cobra.Command {
	tf := &trainFlags{}
	var yes bool
	c := &cobra.Command{
		Use:   "release",
		Short: "Deploy the train to a staging repository and promote it",
		Long: `Open a staging repository, deploy every module in dependency order,
close the repository, run the smoke tests and, once confirmed, release it.

A failed deployment leaves the staging repository open for inspection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var approver operations.Approver
			if yes {
				approver = operations.AutoApprove
			}
			return app.withTrain(cmd, flags, tf, approver, func(ctx context.Context, s *session, ti model.TrainIteration) error {
				_, summary, err := s.ops.PerformRelease(ctx, ti)
				if summary.Len() > 0 {
					renderSummary(app.stdout, fmt.Sprintf("Release: %s", ti), summary)
				}
				return err
			})
		},
	}
	addTrainFlags(c, tf)
	c.Flags().BoolVarP(&yes, "yes", "y", false, "release without asking for confirmation")
	return c
}

func newVerifyCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify the build environment of the orchestrator project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withSession(cmd, flags, nil, func(ctx context.Context, s *session) error {
				if err := s.ops.Verify(ctx); err != nil {
					return err
				}
				fmt.Fprintln(app.stdout, SuccessStyle.Render("✓ ")+"Build environment verified")
				return nil
			})
		},
	}
}

func newVerifyStagingCommand(app *App, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-staging",
		Short: "Verify the credentials of the staging repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withSession(cmd, flags, nil, func(ctx context.Context, s *session) error {
				if err := s.ops.VerifyStagingAuthentication(ctx); err != nil {
					return err
				}
				fmt.Fprintln(app.stdout, SuccessStyle.Render("✓ ")+"Staging authentication verified")
				return nil
			})
		},
	}
}
