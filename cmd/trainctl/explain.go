// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/releasetrain/trainctl/internal/issue"
)

func newExplainCommand(app *App) *cobra.Command {
	var style string
	c := &cobra.Command{
		Use:   "explain [id]",
		Short: "Show troubleshooting steps for a known failure",
		Long: `Show troubleshooting steps for a known failure.

Without an id every catalog entry is listed. Errors printed by trainctl name
the id to pass here.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, entry := range issue.Values() {
					fmt.Fprintf(app.stdout, "%s  %s\n", HighlightStyle.Render(fmt.Sprintf("%2d", entry.Id())), issueTitle(entry))
				}
				return nil
			}

			n, err := strconv.Atoi(args[0])
			entry := issue.Get(issue.Id(n))
			if err != nil || entry == nil {
				cmd.SilenceUsage = true
				return &ExitError{Code: ExitUsage, Err: fmt.Errorf("unknown issue id %q", args[0])}
			}
			out, err := entry.Render(style)
			if err != nil {
				return &ExitError{Code: ExitFailures, Err: err}
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}
	c.Flags().StringVar(&style, "style", "auto", "glamour style (auto, dark, light, notty or a style file)")
	return c
}

// issueTitle returns the first heading of an entry.
func issueTitle(entry *issue.Issue) string {
	md := strings.TrimSpace(string(entry.MarkdownMsg()))
	return strings.TrimPrefix(firstLine(md), "# ")
}
