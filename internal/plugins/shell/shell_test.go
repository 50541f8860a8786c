// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/releasetrain/trainctl/internal/buildsystem"
	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/staging"
	"github.com/releasetrain/trainctl/internal/toolchain"
)

func testTrain(t *testing.T, iteration string) model.TrainIteration {
	t.Helper()
	it, err := model.ParseIteration(iteration)
	if err != nil {
		t.Fatalf("ParseIteration(%q) error = %v", iteration, err)
	}
	ti, err := model.NewTrainIteration(model.Train{
		Name: "2024.1",
		Modules: []model.Module{
			{Project: "commons", Version: model.MustParseVersion("3.3.0")},
			{Project: "jpa", Version: model.MustParseVersion("3.3.0"), DependsOn: []model.Project{"commons"}},
		},
	}, it)
	if err != nil {
		t.Fatalf("NewTrainIteration() error = %v", err)
	}
	return ti
}

func newShell(t *testing.T, project model.Project, scripts map[buildsystem.Operation]string) (*BuildSystem, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	bs, err := New(project, Options{
		Workspace: t.TempDir(),
		Scripts:   scripts,
		JavaHomes: map[string]string{"17": "/opt/jdk-17"},
		Stdout:    &out,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return bs, &out
}

func TestUpdateProjectDescriptors_Environment(t *testing.T) {
	t.Parallel()

	bs, out := newShell(t, "jpa", map[buildsystem.Operation]string{
		buildsystem.OpUpdateProjectDescriptors: `echo "$TRAIN|$ITERATION|$PROJECT|$VERSION|$PHASE|$VERSION_TO_SET|$JAVA_VERSION|$JAVA_HOME"`,
	})
	ti := testTrain(t, "RC1")
	mi, _ := ti.Module("jpa")
	info, err := buildsystem.NewUpdateInformation(ti, model.PhasePrepare)
	if err != nil {
		t.Fatal(err)
	}

	bound := bs.WithJavaVersion(toolchain.MustParseJavaVersion("17"))
	got, err := bound.UpdateProjectDescriptors(t.Context(), mi, info)
	if err != nil {
		t.Fatalf("UpdateProjectDescriptors() error = %v", err)
	}
	if got.Project() != "jpa" {
		t.Errorf("returned module = %s", got)
	}

	want := "2024.1|RC1|jpa|3.3.0|prepare|3.3.0-RC1|17|/opt/jdk-17"
	if line := strings.TrimSpace(out.String()); line != want {
		t.Errorf("script saw %q, want %q", line, want)
	}
	if !bs.JavaVersion().IsZero() {
		t.Error("WithJavaVersion mutated the receiver")
	}
}

func TestPrepareVersion_Cleanup(t *testing.T) {
	t.Parallel()

	bs, out := newShell(t, "commons", map[buildsystem.Operation]string{
		buildsystem.OpPrepareVersion: `echo "$VERSION_TO_SET"`,
	})
	mi, _ := testTrain(t, "GA").Module("commons")

	if _, err := bs.PrepareVersion(t.Context(), mi, model.PhaseCleanup); err != nil {
		t.Fatalf("PrepareVersion() error = %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "3.3.1-SNAPSHOT" {
		t.Errorf("VERSION_TO_SET = %q, want 3.3.1-SNAPSHOT", got)
	}
}

func TestStagingScripts(t *testing.T) {
	t.Parallel()

	bs, out := newShell(t, "build", map[buildsystem.Operation]string{
		buildsystem.OpOpen:    `echo "  orgspring-1042  "`,
		buildsystem.OpClose:   `echo "close $STAGING_REPOSITORY_ID"`,
		buildsystem.OpRelease: `echo "release $STAGING_REPOSITORY_ID"`,
	})

	repo, err := bs.Open(t.Context())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if repo.ID() != "orgspring-1042" {
		t.Fatalf("Open() = %q, want orgspring-1042", repo.ID())
	}
	if err := bs.Close(t.Context(), repo); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bs.Release(t.Context(), repo); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if !strings.Contains(out.String(), "close orgspring-1042\nrelease orgspring-1042\n") {
		t.Errorf("output = %q", out.String())
	}
}

func TestOpen_EmptyOutput(t *testing.T) {
	t.Parallel()

	bs, _ := newShell(t, "build", map[buildsystem.Operation]string{buildsystem.OpOpen: `true`})
	if _, err := bs.Open(t.Context()); !errors.Is(err, ErrEmptyRepositoryID) {
		t.Fatalf("Open() error = %v, want ErrEmptyRepositoryID", err)
	}
}

func TestDeploy(t *testing.T) {
	t.Parallel()

	bs, _ := newShell(t, "jpa", map[buildsystem.Operation]string{
		buildsystem.OpDeploy: `echo "uploading to ${STAGING_REPOSITORY_ID:-snapshots}"; echo 77`,
	})
	mi, _ := testTrain(t, "GA").Module("jpa")
	repo, err := staging.NewRepository("orgspring-1042")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		repo   staging.Repository
		target string
	}{
		{"staging", repo, "orgspring-1042"},
		{"snapshots", staging.Empty, SnapshotRepository},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info, err := bs.Deploy(t.Context(), mi, tt.repo)
			if err != nil {
				t.Fatalf("Deploy() error = %v", err)
			}
			if info.TargetRepository != tt.target {
				t.Errorf("TargetRepository = %q, want %q", info.TargetRepository, tt.target)
			}
			if info.BuildNumber != "77" {
				t.Errorf("BuildNumber = %q, want 77", info.BuildNumber)
			}
			if info.BuildName == "" || info.Repository != tt.repo || info.Module.Project() != "jpa" {
				t.Errorf("info = %+v", info)
			}
		})
	}
}

func TestRun_Failures(t *testing.T) {
	t.Parallel()

	bs, _ := newShell(t, "jpa", map[buildsystem.Operation]string{
		buildsystem.OpTriggerBuild:              `echo "compilation failed" >&2; exit 3`,
		buildsystem.OpTriggerDocumentationBuild: `if then fi`,
	})
	mi, _ := testTrain(t, "GA").Module("jpa")

	_, err := bs.TriggerBuild(t.Context(), mi)
	var exitErr *ScriptExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("TriggerBuild() error = %v, want *ScriptExitError", err)
	}
	if exitErr.Status != 3 || exitErr.Stderr != "compilation failed" {
		t.Errorf("ScriptExitError = %+v", exitErr)
	}
	var opErr *buildsystem.OperationError
	if !errors.As(err, &opErr) || opErr.Project != "jpa" || opErr.Operation != buildsystem.OpTriggerBuild {
		t.Errorf("TriggerBuild() error = %v, want OperationError for jpa build", err)
	}

	if _, err := bs.TriggerDocumentationBuild(t.Context(), mi); !errors.Is(err, buildsystem.ErrOperationFailed) {
		t.Errorf("TriggerDocumentationBuild() error = %v, want parse failure", err)
	}

	_, err = bs.TriggerPreReleaseCheck(t.Context(), mi)
	if !errors.Is(err, ErrScriptNotConfigured) || !errors.Is(err, buildsystem.ErrOperationFailed) {
		t.Errorf("TriggerPreReleaseCheck() error = %v, want ErrScriptNotConfigured", err)
	}
}

func TestWorkDir(t *testing.T) {
	t.Parallel()

	workspace := t.TempDir()
	projectDir := filepath.Join(workspace, "commons")
	if err := os.Mkdir(projectDir, 0o755); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	scripts := map[buildsystem.Operation]string{buildsystem.OpVerify: `pwd`}
	withDir, err := New("commons", Options{Workspace: workspace, Scripts: scripts, Stdout: &out})
	if err != nil {
		t.Fatal(err)
	}
	if err := withDir.Verify(t.Context()); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != projectDir {
		t.Errorf("pwd = %q, want %q", got, projectDir)
	}

	out.Reset()
	withoutDir, err := New("jpa", Options{Workspace: workspace, Scripts: scripts, Stdout: &out})
	if err != nil {
		t.Fatal(err)
	}
	if err := withoutDir.Verify(t.Context()); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != workspace {
		t.Errorf("pwd = %q, want %q", got, workspace)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New("Bad", Options{}); !errors.Is(err, model.ErrInvalidProject) {
		t.Errorf("New(Bad) error = %v, want ErrInvalidProject", err)
	}
	_, err := New("jpa", Options{Scripts: map[buildsystem.Operation]string{"compile": "make"}})
	if !errors.Is(err, buildsystem.ErrInvalidOperation) {
		t.Errorf("New() error = %v, want ErrInvalidOperation", err)
	}
}
