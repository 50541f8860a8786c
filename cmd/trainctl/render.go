// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/releasetrain/trainctl/internal/executor"
	"github.com/releasetrain/trainctl/internal/issue"
)

// renderSummary prints one row per result followed by the summary line.
func renderSummary[S executor.Subject, T any](w io.Writer, title string, summary executor.Summary[S, T]) {
	fmt.Fprintln(w, TitleStyle.Render(title))
	for _, r := range summary.Results() {
		row := projectColumnStyle.Render(r.Project().String()) +
			outcomeColumnStyle.Render(renderOutcome(r.Outcome())) +
			elapsedColumnStyle.Render(r.Elapsed().Round(time.Millisecond).String())
		if err := r.Err(); err != nil {
			row += "  " + SubtitleStyle.Render(firstLine(err.Error()))
		}
		fmt.Fprintln(w, "  "+row)
	}
	fmt.Fprintln(w)

	line := summary.String()
	switch {
	case summary.Complete():
		fmt.Fprintln(w, SuccessStyle.Render("✓ ")+line)
	case summary.HasFailures():
		fmt.Fprintln(w, ErrorStyle.Render("✗ ")+line)
	default:
		fmt.Fprintln(w, WarningStyle.Render("! ")+line)
	}
}

func renderOutcome(o executor.Outcome) string {
	switch o {
	case executor.OutcomeSucceeded:
		return SuccessStyle.Render(string(o))
	case executor.OutcomeFailed:
		return ErrorStyle.Render(string(o))
	default:
		return WarningStyle.Render(string(o))
	}
}

// summaryError turns an incomplete summary into an error for the exit code.
func summaryError[S executor.Subject, T any](summary executor.Summary[S, T]) error {
	if summary.Complete() {
		return nil
	}
	return summary.Err()
}

// issueHint returns a pointer to the catalog entry linked to err.
func issueHint(err error, verbose bool) string {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Issue == 0 {
		return ""
	}
	if verbose {
		if entry := issue.Get(ae.Issue); entry != nil {
			out, renderErr := entry.Render("auto")
			if renderErr == nil {
				return out
			}
		}
	}
	return SubtitleStyle.Render(fmt.Sprintf("Run 'trainctl explain %d' for troubleshooting steps.", ae.Issue))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
