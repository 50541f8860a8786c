// SPDX-License-Identifier: MPL-2.0

package buildsystem_test

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/releasetrain/trainctl/internal/buildsystem"
	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/testutil"
	"github.com/releasetrain/trainctl/internal/toolchain"
)

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	rec := testutil.NewRecorder()
	reg := buildsystem.NewRegistry()
	if err := reg.Register(model.ProjectCommons, rec.Plugin(model.ProjectCommons)); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	reg.Freeze()

	bs, err := reg.Resolve(model.ProjectCommons)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got := bs.(*testutil.RecordingBuildSystem).Project(); got != model.ProjectCommons {
		t.Errorf("resolved plugin project = %q, want commons", got)
	}

	_, err = reg.Resolve("redis")
	if !errors.Is(err, buildsystem.ErrNoPluginRegistered) {
		t.Fatalf("Resolve(redis) error = %v, want ErrNoPluginRegistered", err)
	}
	var notFound *buildsystem.NoPluginRegisteredError
	if !errors.As(err, &notFound) || notFound.Project != "redis" {
		t.Fatalf("Resolve(redis) error = %v, want NoPluginRegisteredError naming redis", err)
	}
	if len(rec.Calls()) != 0 {
		t.Errorf("resolution must not invoke the plugin, got %v", rec.Calls())
	}
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	rec := testutil.NewRecorder()

	tests := []struct {
		name    string
		setup   func(*buildsystem.Registry)
		project model.Project
		plugin  buildsystem.BuildSystem
		wantErr error
	}{
		{name: "ok", project: "jpa", plugin: rec.Plugin("jpa")},
		{
			name:    "duplicate",
			setup:   func(r *buildsystem.Registry) { _ = r.Register("jpa", rec.Plugin("jpa")) },
			project: "jpa",
			plugin:  rec.Plugin("jpa"),
			wantErr: buildsystem.ErrDuplicatePlugin,
		},
		{name: "invalid project", project: "Not Valid", plugin: rec.Plugin("jpa"), wantErr: model.ErrInvalidProject},
		{name: "nil plugin", project: "jpa", wantErr: buildsystem.ErrNilPlugin},
		{
			name:    "frozen",
			setup:   func(r *buildsystem.Registry) { r.Freeze() },
			project: "jpa",
			plugin:  rec.Plugin("jpa"),
			wantErr: buildsystem.ErrRegistryFrozen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg := buildsystem.NewRegistry()
			if tt.setup != nil {
				tt.setup(reg)
			}
			err := reg.Register(tt.project, tt.plugin)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Register() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_Projects(t *testing.T) {
	t.Parallel()

	reg, err := testutil.NewRecorder().Registry("redis", "build", "jpa")
	if err != nil {
		t.Fatal(err)
	}
	want := []model.Project{"build", "jpa", "redis"}
	if got := reg.Projects(); !slices.Equal(got, want) {
		t.Errorf("Projects() = %v, want %v", got, want)
	}
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	t.Parallel()

	reg, err := testutil.NewRecorder().Registry("jpa", "mongodb")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reg.Resolve("jpa"); err != nil {
				t.Errorf("Resolve() unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestWithJavaVersion_DoesNotMutate(t *testing.T) {
	t.Parallel()

	plugin := testutil.NewRecorder().Plugin("jpa")
	bound := plugin.WithJavaVersion(toolchain.MustParseJavaVersion("21"))

	if !plugin.JavaVersion().IsZero() {
		t.Errorf("receiver bound to %q after WithJavaVersion", plugin.JavaVersion())
	}
	if bound.JavaVersion().String() != "21" {
		t.Errorf("bound JavaVersion() = %q, want 21", bound.JavaVersion())
	}
	rebound := bound.WithJavaVersion(toolchain.MustParseJavaVersion("17"))
	if bound.JavaVersion().String() != "21" || rebound.JavaVersion().String() != "17" {
		t.Errorf("rebinding changed the earlier handle: %q / %q", bound.JavaVersion(), rebound.JavaVersion())
	}
}
