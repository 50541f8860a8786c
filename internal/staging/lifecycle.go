// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNilRemote is returned when a Lifecycle is created without a remote.
var ErrNilRemote = errors.New("staging remote must not be nil")

type (
	// Remote is the staging service as seen by the lifecycle. The build orchestrator
	// plugin implements it.
	Remote interface {
		// Open creates a new staging repository and returns its id.
		Open(ctx context.Context) (Repository, error)
		// Close seals the repository against further uploads.
		Close(ctx context.Context, repo Repository) error
		// Release promotes the closed repository; its artifacts become public.
		Release(ctx context.Context, repo Repository) error
	}

	// Lifecycle drives one staging repository through its states. It is owned by
	// the top-level release operation and safe for concurrent use.
	Lifecycle struct {
		remote Remote

		mu    sync.Mutex
		state State
		repo  Repository
	}
)

// NewLifecycle creates an absent lifecycle backed by remote.
func NewLifecycle(remote Remote) (*Lifecycle, error) {
	if remote == nil {
		return nil, ErrNilRemote
	}
	return &Lifecycle{remote: remote, state: StateAbsent}, nil
}

// Attach resumes the lifecycle of an existing repository, e.g. to release a
// repository that was closed by an earlier invocation. An Empty repository is
// attached as absent regardless of state.
func Attach(remote Remote, repo Repository, state State) (*Lifecycle, error) {
	if remote == nil {
		return nil, ErrNilRemote
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	if !repo.IsPresent() {
		state = StateAbsent
	} else if state == StateAbsent {
		return nil, fmt.Errorf("attach %s: %w", repo, &InvalidTransitionError{Operation: "attach", State: state, Repository: repo})
	}
	return &Lifecycle{remote: remote, state: state, repo: repo}, nil
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Repository returns the current repository (Empty while absent).
func (l *Lifecycle) Repository() Repository {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.repo
}

// Open creates the staging repository for a public iteration. For non-public
// iterations it performs no remote call and returns Empty.
func (l *Lifecycle) Open(ctx context.Context, public bool) (Repository, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateAbsent {
		return l.repo, &InvalidTransitionError{Operation: "open", State: l.state, Repository: l.repo}
	}
	if !public {
		return Empty, nil
	}

	repo, err := l.remote.Open(ctx)
	if err != nil {
		return Empty, fmt.Errorf("open staging repository: %w", err)
	}
	if !repo.IsPresent() {
		return Empty, fmt.Errorf("open staging repository: %w", ErrBlankRepositoryID)
	}

	l.repo = repo
	l.state = StateOpen
	return repo, nil
}

// Close seals an open repository. It is a no-op while absent.
func (l *Lifecycle) Close(ctx context.Context) error {
	return l.transition(ctx, "close", StateOpen, StateClosed, l.remote.Close)
}

// Release promotes a closed repository. It is a no-op while absent. Releasing a
// repository that is still open is rejected.
func (l *Lifecycle) Release(ctx context.Context) error {
	return l.transition(ctx, "release", StateClosed, StateReleased, l.remote.Release)
}

// transition moves from -> to through call. A failing remote call leaves the
// state unchanged.
func (l *Lifecycle) transition(ctx context.Context, op string, from, to State, call func(context.Context, Repository) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateAbsent {
		return nil
	}
	if l.state != from {
		return &InvalidTransitionError{Operation: op, State: l.state, Repository: l.repo}
	}
	if err := call(ctx, l.repo); err != nil {
		return fmt.Errorf("%s staging repository %s: %w", op, l.repo, err)
	}
	l.state = to
	return nil
}
