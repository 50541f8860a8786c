// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/staging"
)

func newStagingCommand(app *App, flags *rootFlags) *cobra.Command {
	c := &cobra.Command{
		Use:   "staging",
		Short: "Drive a staging repository by hand",
		Long: `Open, close or release a staging repository outside of 'trainctl release'.

A repository left open by a failed release can be closed and released here
once the failed modules were deployed again.`,
	}
	c.AddCommand(
		newStagingOpenCommand(app, flags),
		newStagingTransitionCommand(app, flags, "close", "Close an open staging repository", staging.StateOpen,
			func(ctx context.Context, s *session, lc *staging.Lifecycle) error { return s.ops.CloseStagingRepository(ctx, lc) }),
		newStagingTransitionCommand(app, flags, "release", "Release a closed staging repository", staging.StateClosed,
			func(ctx context.Context, s *session, lc *staging.Lifecycle) error { return s.ops.ReleaseStagingRepository(ctx, lc) }),
	)
	return c
}

func newStagingOpenCommand(app *App, flags *rootFlags) *cobra.Command {
	var iteration string
	c := &cobra.Command{
		Use:   "open",
		Short: "Open a staging repository for an iteration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			it, err := model.ParseIteration(iteration)
			if err != nil {
				return app.fail(cmd, flags, ExitUsage, err)
			}
			return app.withSession(cmd, flags, nil, func(ctx context.Context, s *session) error {
				lc, err := s.ops.OpenStagingRepository(ctx, it)
				if err != nil {
					return err
				}
				repo := lc.Repository()
				if !repo.IsPresent() {
					fmt.Fprintf(app.stdout, "%s iteration %s deploys to snapshots; no staging repository opened\n",
						WarningStyle.Render("!"), it)
					return nil
				}
				fmt.Fprintf(app.stdout, "%s Staging repository %s is %s\n",
					SuccessStyle.Render("✓"), HighlightStyle.Render(repo.ID()), lc.State())
				return nil
			})
		},
	}
	c.Flags().StringVarP(&iteration, "iteration", "i", "", "train iteration (M<n>, RC<n>, GA or SR<n>)")
	_ = c.MarkFlagRequired("iteration")
	return c
}

func newStagingTransitionCommand(app *App, flags *rootFlags, use, short string, from staging.State,
	transition func(context.Context, *session, *staging.Lifecycle) error,
) *cobra.Command {
	var id string
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := staging.NewRepository(id)
			if err != nil {
				return app.fail(cmd, flags, ExitUsage, err)
			}
			return app.withSession(cmd, flags, nil, func(ctx context.Context, s *session) error {
				lc, err := s.ops.AttachStagingRepository(ctx, repo, from)
				if err != nil {
					return err
				}
				if err := transition(ctx, s, lc); err != nil {
					return err
				}
				fmt.Fprintf(app.stdout, "%s Staging repository %s is %s\n",
					SuccessStyle.Render("✓"), HighlightStyle.Render(repo.ID()), lc.State())
				return nil
			})
		},
	}
	c.Flags().StringVar(&id, "id", "", "staging repository id")
	_ = c.MarkFlagRequired("id")
	return c
}
