// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/staging"
)

// confirmApprover asks the operator before a staging repository is promoted.
// Aborting the prompt counts as a refusal. Input that is not a terminal gets
// the line-based accessible prompt.
type confirmApprover struct {
	in  io.Reader
	out io.Writer
}

// Approve implements operations.Approver.
func (a confirmApprover) Approve(ctx context.Context, ti model.TrainIteration, repo staging.Repository) (bool, error) {
	approved := false
	confirm := huh.NewConfirm().
		Title(fmt.Sprintf("Release staging repository %s?", repo)).
		Description(fmt.Sprintf("%d modules of %s were deployed and passed the smoke tests.", ti.Len(), ti)).
		Affirmative("Release").
		Negative("Keep closed").
		Value(&approved)

	form := huh.NewForm(huh.NewGroup(confirm)).
		WithTheme(huh.ThemeCharm()).
		WithAccessible(!isTerminal(a.in))
	if a.in != nil {
		form = form.WithInput(a.in)
	}
	if a.out != nil {
		form = form.WithOutput(a.out)
	}

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("release confirmation failed: %w", err)
	}
	return approved, nil
}

// isTerminal reports whether r is an interactive terminal. Nil means stdin.
func isTerminal(r io.Reader) bool {
	if r == nil {
		r = os.Stdin
	}
	f, ok := r.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
