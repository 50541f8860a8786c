// SPDX-License-Identifier: MPL-2.0

// Package plugins turns the plugin section of the configuration into a frozen
// buildsystem.Registry.
package plugins

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/releasetrain/trainctl/internal/buildsystem"
	"github.com/releasetrain/trainctl/internal/config"
	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/internal/plugins/shell"
)

// BuildRegistryOptions configures registry construction.
type BuildRegistryOptions struct {
	// Config selects the plugin of every project.
	Config *config.Config
	// Stdout and Stderr receive plugin output.
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// BuildRegistry registers one plugin per configured project and freezes the
// registry. Projects without a plugin entry stay unregistered and resolve to
// *buildsystem.NoPluginRegisteredError.
func BuildRegistry(opts BuildRegistryOptions) (*buildsystem.Registry, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	registry := buildsystem.NewRegistry()
	for _, project := range slices.Sorted(maps.Keys(cfg.Plugins)) {
		bs, err := newPlugin(project, cfg.Plugins[project], cfg, opts)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(project, bs); err != nil {
			return nil, err
		}
	}
	registry.Freeze()
	return registry, nil
}

func newPlugin(project model.Project, kind config.PluginKind, cfg *config.Config, opts BuildRegistryOptions) (buildsystem.BuildSystem, error) {
	switch kind {
	case config.PluginShell:
		return shell.New(project, shell.Options{
			Workspace: cfg.Workspace,
			Scripts:   ScriptsFor(cfg.Shell, project),
			JavaHomes: cfg.Toolchain.JavaHomes,
			Stdout:    opts.Stdout,
			Stderr:    opts.Stderr,
			Logger:    opts.Logger,
		})
	default:
		return nil, fmt.Errorf("plugin of %s: %w", project, kind.Validate())
	}
}

// ScriptsFor merges the shared shell scripts with the overrides of project.
func ScriptsFor(cfg config.ShellConfig, project model.Project) map[buildsystem.Operation]string {
	scripts := make(map[buildsystem.Operation]string, len(cfg.Scripts))
	for op, src := range cfg.Scripts {
		scripts[buildsystem.Operation(op)] = src
	}
	if override, ok := cfg.Projects[project]; ok {
		for op, src := range override.Scripts {
			scripts[buildsystem.Operation(op)] = src
		}
	}
	return scripts
}
