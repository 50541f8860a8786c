// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"context"
	"errors"
	"slices"
	"testing"
)

type fakeRemote struct {
	calls    []string
	openID   string
	closeErr error
}

func (f *fakeRemote) Open(context.Context) (Repository, error) {
	f.calls = append(f.calls, "open")
	return Repository{id: f.openID}, nil
}

func (f *fakeRemote) Close(_ context.Context, repo Repository) error {
	f.calls = append(f.calls, "close:"+repo.ID())
	return f.closeErr
}

func (f *fakeRemote) Release(_ context.Context, repo Repository) error {
	f.calls = append(f.calls, "release:"+repo.ID())
	return nil
}

func TestLifecycle_PublicHappyPath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &fakeRemote{openID: "orgspring-1042"}
	l, err := NewLifecycle(remote)
	if err != nil {
		t.Fatalf("NewLifecycle() unexpected error: %v", err)
	}

	repo, err := l.Open(ctx, true)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	if repo.ID() != "orgspring-1042" || l.State() != StateOpen {
		t.Fatalf("after Open: repo=%s state=%s", repo, l.State())
	}
	if err := l.Close(ctx); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	if l.State() != StateClosed {
		t.Fatalf("after Close: state=%s, want closed", l.State())
	}
	if err := l.Release(ctx); err != nil {
		t.Fatalf("Release() unexpected error: %v", err)
	}
	if l.State() != StateReleased || !l.State().IsTerminal() {
		t.Fatalf("after Release: state=%s, want released", l.State())
	}

	want := []string{"open", "close:orgspring-1042", "release:orgspring-1042"}
	if !slices.Equal(remote.calls, want) {
		t.Errorf("remote calls = %v, want %v", remote.calls, want)
	}
}

func TestLifecycle_NonPublicNeverCallsRemote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := &fakeRemote{openID: "unused"}
	l, err := NewLifecycle(remote)
	if err != nil {
		t.Fatalf("NewLifecycle() unexpected error: %v", err)
	}

	for range 3 {
		repo, err := l.Open(ctx, false)
		if err != nil {
			t.Fatalf("Open(false) unexpected error: %v", err)
		}
		if repo.IsPresent() {
			t.Fatalf("Open(false) = %s, want Empty", repo)
		}
	}
	if err := l.Close(ctx); err != nil {
		t.Errorf("Close() on absent returned error: %v", err)
	}
	if err := l.Release(ctx); err != nil {
		t.Errorf("Release() on absent returned error: %v", err)
	}
	if len(remote.calls) != 0 {
		t.Errorf("remote calls = %v, want none", remote.calls)
	}
	if l.State() != StateAbsent {
		t.Errorf("state = %s, want absent", l.State())
	}
}

func TestLifecycle_InvalidTransitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := Repository{id: "r-1"}

	tests := []struct {
		name  string
		state State
		run   func(*Lifecycle) error
	}{
		{name: "release while open", state: StateOpen, run: func(l *Lifecycle) error { return l.Release(ctx) }},
		{name: "close twice", state: StateClosed, run: func(l *Lifecycle) error { return l.Close(ctx) }},
		{name: "close after release", state: StateReleased, run: func(l *Lifecycle) error { return l.Close(ctx) }},
		{name: "release after release", state: StateReleased, run: func(l *Lifecycle) error { return l.Release(ctx) }},
		{name: "open while open", state: StateOpen, run: func(l *Lifecycle) error { _, err := l.Open(ctx, true); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			remote := &fakeRemote{openID: "r-2"}
			l, err := Attach(remote, repo, tt.state)
			if err != nil {
				t.Fatalf("Attach() unexpected error: %v", err)
			}

			err = tt.run(l)
			var transitionErr *InvalidTransitionError
			if !errors.As(err, &transitionErr) {
				t.Fatalf("error = %v, want *InvalidTransitionError", err)
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("error should wrap ErrInvalidTransition, got %v", err)
			}
			if l.State() != tt.state {
				t.Errorf("state changed to %s, want %s", l.State(), tt.state)
			}
			if len(remote.calls) != 0 {
				t.Errorf("remote calls = %v, want none", remote.calls)
			}
		})
	}
}

func TestLifecycle_RemoteFailureKeepsState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	boom := errors.New("staging service unavailable")
	remote := &fakeRemote{closeErr: boom}
	l, err := Attach(remote, Repository{id: "r-3"}, StateOpen)
	if err != nil {
		t.Fatalf("Attach() unexpected error: %v", err)
	}

	if err := l.Close(ctx); !errors.Is(err, boom) {
		t.Fatalf("Close() error = %v, want %v", err, boom)
	}
	if l.State() != StateOpen {
		t.Errorf("state = %s, want open", l.State())
	}
}

func TestAttach(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	if _, err := Attach(nil, Empty, StateOpen); !errors.Is(err, ErrNilRemote) {
		t.Errorf("Attach(nil) error = %v, want ErrNilRemote", err)
	}
	if _, err := Attach(remote, Repository{id: "x"}, State(42)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Attach(state 42) error = %v, want ErrInvalidState", err)
	}
	if _, err := Attach(remote, Repository{id: "x"}, StateAbsent); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Attach(present, absent) error = %v, want ErrInvalidTransition", err)
	}
	l, err := Attach(remote, Empty, StateClosed)
	if err != nil {
		t.Fatalf("Attach(Empty) unexpected error: %v", err)
	}
	if l.State() != StateAbsent {
		t.Errorf("Attach(Empty).State() = %s, want absent", l.State())
	}
}

func TestNewRepository(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository("  "); !errors.Is(err, ErrBlankRepositoryID) {
		t.Errorf("NewRepository(blank) error = %v, want ErrBlankRepositoryID", err)
	}
	repo, err := NewRepository(" orgspring-7 ")
	if err != nil {
		t.Fatalf("NewRepository() unexpected error: %v", err)
	}
	if repo.ID() != "orgspring-7" || !repo.IsPresent() {
		t.Errorf("NewRepository() = %q, want orgspring-7", repo.ID())
	}
	if Empty.String() != "(none)" {
		t.Errorf("Empty.String() = %q, want (none)", Empty.String())
	}
}
