// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/releasetrain/trainctl/internal/model"
)

const (
	// JavaVersionFile is the jenv/asdf style version file name.
	JavaVersionFile = ".java-version"
	// SDKManFile is the SDKMAN environment file name.
	SDKManFile = ".sdkmanrc"
)

// ErrToolchainNotFound is the sentinel error wrapped by ToolchainNotFoundError.
var ErrToolchainNotFound = errors.New("toolchain not found")

type (
	// Detector detects the Java version for a project.
	Detector interface {
		Detect(ctx context.Context, project model.Project) (JavaVersion, error)
	}

	// VersionFileError is returned when a version file of a project checkout
	// cannot be read or parsed.
	VersionFileError struct {
		Project model.Project
		Path    string
		Cause   error
	}

	// ToolchainNotFoundError is returned when no source yields a version for a project.
	//
	//nolint:revive // ToolchainNotFoundError mirrors the error taxonomy name
	ToolchainNotFoundError struct {
		Project model.Project
	}

	// ConfigDetector resolves versions from explicit per-project entries, falling
	// back to Default when set.
	ConfigDetector struct {
		Projects map[model.Project]JavaVersion
		Default  JavaVersion
	}

	// FileDetector reads .java-version or .sdkmanrc from <Root>/<project>.
	FileDetector struct {
		Root string
	}

	// ChainDetector asks each detector in turn and returns the first hit.
	// Only ToolchainNotFoundError moves on to the next detector; any other error
	// is returned immediately.
	ChainDetector []Detector
)

// Error implements the error interface.
func (e *ToolchainNotFoundError) Error() string {
	return fmt.Sprintf("no java toolchain configured or detected for project %q", e.Project)
}

// Unwrap returns ErrToolchainNotFound for errors.Is() compatibility.
func (e *ToolchainNotFoundError) Unwrap() error { return ErrToolchainNotFound }

// Error implements the error interface.
func (e *VersionFileError) Error() string {
	return fmt.Sprintf("java version of project %q from %s: %v", e.Project, e.Path, e.Cause)
}

// Unwrap returns the read or parse error.
func (e *VersionFileError) Unwrap() error { return e.Cause }

// Detect implements Detector.
func (d ConfigDetector) Detect(_ context.Context, project model.Project) (JavaVersion, error) {
	if v, ok := d.Projects[project]; ok && !v.IsZero() {
		return v, nil
	}
	if !d.Default.IsZero() {
		return d.Default, nil
	}
	return JavaVersion{}, &ToolchainNotFoundError{Project: project}
}

// Detect implements Detector.
func (d FileDetector) Detect(ctx context.Context, project model.Project) (JavaVersion, error) {
	if err := ctx.Err(); err != nil {
		return JavaVersion{}, err
	}
	if d.Root == "" {
		return JavaVersion{}, &ToolchainNotFoundError{Project: project}
	}
	dir := filepath.Join(d.Root, project.String())

	path := filepath.Join(dir, JavaVersionFile)
	if data, err := os.ReadFile(path); err == nil {
		line, _, _ := strings.Cut(strings.TrimSpace(string(data)), "\n")
		if line = strings.TrimSpace(line); line != "" {
			return parseFileVersion(project, path, line)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return JavaVersion{}, &VersionFileError{Project: project, Path: path, Cause: err}
	}

	path = filepath.Join(dir, SDKManFile)
	if data, err := os.ReadFile(path); err == nil {
		if raw, ok := sdkmanJava(data); ok {
			return parseFileVersion(project, path, raw)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return JavaVersion{}, &VersionFileError{Project: project, Path: path, Cause: err}
	}

	return JavaVersion{}, &ToolchainNotFoundError{Project: project}
}

func parseFileVersion(project model.Project, path, raw string) (JavaVersion, error) {
	v, err := ParseJavaVersion(raw)
	if err != nil {
		return JavaVersion{}, &VersionFileError{Project: project, Path: path, Cause: err}
	}
	return v, nil
}

// sdkmanJava extracts the value of the java= entry of an .sdkmanrc file.
func sdkmanJava(data []byte) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if ok && strings.TrimSpace(key) == "java" && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

// Detect implements Detector.
func (c ChainDetector) Detect(ctx context.Context, project model.Project) (JavaVersion, error) {
	for _, d := range c {
		v, err := d.Detect(ctx, project)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrToolchainNotFound) {
			return JavaVersion{}, err
		}
	}
	return JavaVersion{}, &ToolchainNotFoundError{Project: project}
}
