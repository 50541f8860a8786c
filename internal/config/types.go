// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/releasetrain/trainctl/internal/logging"
	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/toolchain"
)

const (
	// PluginShell runs the configured scripts with the embedded shell interpreter.
	PluginShell PluginKind = "shell"

	// DefaultParallelism is the any-order worker count when none is configured.
	DefaultParallelism = 4
)

var (
	// ErrInvalidPluginKind is the sentinel error wrapped by InvalidPluginKindError.
	ErrInvalidPluginKind = errors.New("invalid plugin kind")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// PluginKind selects the build system implementation of a project.
	PluginKind string

	// InvalidPluginKindError is returned for unknown plugin kinds.
	InvalidPluginKindError struct {
		Value PluginKind
	}

	// InvalidConfigError collects every invalid field of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the application configuration.
	Config struct {
		// Workspace is the checkout root with one directory per project.
		Workspace string `json:"workspace" mapstructure:"workspace"`
		// Orchestrator is the project that owns verification, staging and smoke tests.
		Orchestrator model.Project `json:"orchestrator" mapstructure:"orchestrator"`
		// Parallelism bounds the workers of any-order batches.
		Parallelism int `json:"parallelism" mapstructure:"parallelism"`

		Log       LogConfig                    `json:"log" mapstructure:"log"`
		Toolchain ToolchainConfig              `json:"toolchain" mapstructure:"toolchain"`
		Plugins   map[model.Project]PluginKind `json:"plugins" mapstructure:"plugins"`
		Shell     ShellConfig                  `json:"shell" mapstructure:"shell"`
		Maven     MavenConfig                  `json:"maven" mapstructure:"maven"`
	}

	// LogConfig configures the release logger.
	LogConfig struct {
		Level  string         `json:"level" mapstructure:"level"`
		Format logging.Format `json:"format" mapstructure:"format"`
	}

	// ToolchainConfig configures Java version detection.
	ToolchainConfig struct {
		// Default applies when neither the configuration nor the checkout names a version.
		Default string `json:"default,omitempty" mapstructure:"default"`
		// Projects pins versions per project.
		Projects map[model.Project]string `json:"projects,omitempty" mapstructure:"projects"`
		// JavaHomes maps a version (as spelled) to its installation directory.
		JavaHomes map[string]string `json:"java_homes,omitempty" mapstructure:"java_homes"`
	}

	// ShellConfig holds the scripts of the shell build system. Project entries
	// override the shared scripts operation by operation.
	ShellConfig struct {
		Scripts  map[string]string                    `json:"scripts,omitempty" mapstructure:"scripts"`
		Projects map[model.Project]ShellProjectConfig `json:"projects,omitempty" mapstructure:"projects"`
	}

	// ShellProjectConfig holds per-project script overrides.
	ShellProjectConfig struct {
		Scripts map[string]string `json:"scripts,omitempty" mapstructure:"scripts"`
	}

	// MavenConfig holds artifact repository settings.
	MavenConfig struct {
		LocalRepository string `json:"local_repository" mapstructure:"local_repository"`
	}
)

// Error implements the error interface.
func (e *InvalidPluginKindError) Error() string {
	return fmt.Sprintf("invalid plugin kind %q (valid: %s)", e.Value, PluginShell)
}

// Unwrap returns ErrInvalidPluginKind for errors.Is() compatibility.
func (e *InvalidPluginKindError) Unwrap() error { return ErrInvalidPluginKind }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate returns nil when k is a known plugin kind.
func (k PluginKind) Validate() error {
	if k == PluginShell {
		return nil
	}
	return &InvalidPluginKindError{Value: k}
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	localRepo := ""
	if home, err := os.UserHomeDir(); err == nil {
		localRepo = filepath.Join(home, ".m2", "repository")
	}
	return &Config{
		Workspace:    ".",
		Orchestrator: model.ProjectBuild,
		Parallelism:  DefaultParallelism,
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
		Plugins: map[model.Project]PluginKind{},
		Maven:   MavenConfig{LocalRepository: localRepo},
	}
}

// Validate checks the constraints the schema cannot see, such as values that
// arrived through environment variables.
func (c *Config) Validate() error {
	var errs []error
	if ok, fieldErrs := c.Orchestrator.IsValid(); !ok {
		errs = append(errs, fmt.Errorf("orchestrator: %w", errors.Join(fieldErrs...)))
	}
	if c.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("parallelism: must be at least 1, got %d", c.Parallelism))
	}
	if err := c.Log.Format.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}
	for project, kind := range c.Plugins {
		if err := kind.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("plugins.%s: %w", project, err))
		}
	}
	if c.Toolchain.Default != "" {
		if _, err := toolchain.ParseJavaVersion(c.Toolchain.Default); err != nil {
			errs = append(errs, fmt.Errorf("toolchain.default: %w", err))
		}
	}
	for project, raw := range c.Toolchain.Projects {
		if _, err := toolchain.ParseJavaVersion(raw); err != nil {
			errs = append(errs, fmt.Errorf("toolchain.projects.%s: %w", project, err))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Detector builds the toolchain detection chain: configured project pins,
// then version files in the workspace, then the configured default.
func (c *Config) Detector() (toolchain.Detector, error) {
	pins := make(map[model.Project]toolchain.JavaVersion, len(c.Toolchain.Projects))
	for project, raw := range c.Toolchain.Projects {
		v, err := toolchain.ParseJavaVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("toolchain.projects.%s: %w", project, err)
		}
		pins[project] = v
	}
	var def toolchain.JavaVersion
	if c.Toolchain.Default != "" {
		v, err := toolchain.ParseJavaVersion(c.Toolchain.Default)
		if err != nil {
			return nil, fmt.Errorf("toolchain.default: %w", err)
		}
		def = v
	}
	return toolchain.ChainDetector{
		toolchain.ConfigDetector{Projects: pins},
		toolchain.FileDetector{Root: c.Workspace},
		toolchain.ConfigDetector{Default: def},
	}, nil
}
