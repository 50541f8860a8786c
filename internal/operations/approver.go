// SPDX-License-Identifier: MPL-2.0

package operations

import (
	"context"

	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/staging"
)

// AutoApprove approves every release.
var AutoApprove Approver = ApproverFunc(func(context.Context, model.TrainIteration, staging.Repository) (bool, error) {
	return true, nil
})

type (
	// Approver gates the promotion of a closed, smoke-tested staging repository.
	Approver interface {
		Approve(ctx context.Context, train model.TrainIteration, repo staging.Repository) (bool, error)
	}

	// ApproverFunc adapts a function to Approver.
	ApproverFunc func(ctx context.Context, train model.TrainIteration, repo staging.Repository) (bool, error)
)

// Approve implements Approver.
func (f ApproverFunc) Approve(ctx context.Context, train model.TrainIteration, repo staging.Repository) (bool, error) {
	return f(ctx, train, repo)
}
