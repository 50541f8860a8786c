// SPDX-License-Identifier: MPL-2.0

package buildsystem

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/releasetrain/trainctl/internal/model"
)

var (
	// ErrNoPluginRegistered is the sentinel error wrapped by NoPluginRegisteredError.
	ErrNoPluginRegistered = errors.New("no build system plugin registered")

	// ErrDuplicatePlugin is the sentinel error wrapped by DuplicatePluginError.
	ErrDuplicatePlugin = errors.New("build system plugin already registered")

	// ErrRegistryFrozen is returned by Register after Freeze.
	ErrRegistryFrozen = errors.New("build system registry is frozen")

	// ErrNilPlugin is returned when registering a nil BuildSystem.
	ErrNilPlugin = errors.New("build system plugin must not be nil")
)

type (
	// Registry maps each project to exactly one BuildSystem. It is populated once
	// at startup and frozen; Resolve is safe for concurrent use.
	Registry struct {
		mu      sync.RWMutex
		plugins map[model.Project]BuildSystem
		frozen  bool
	}

	// NoPluginRegisteredError is returned when no plugin handles a project.
	NoPluginRegisteredError struct {
		Project model.Project
	}

	// DuplicatePluginError is returned when a project already has a plugin.
	DuplicatePluginError struct {
		Project model.Project
	}
)

// Error implements the error interface.
func (e *NoPluginRegisteredError) Error() string {
	return fmt.Sprintf("no build system plugin registered for project %q", e.Project)
}

// Unwrap returns ErrNoPluginRegistered for errors.Is() compatibility.
func (e *NoPluginRegisteredError) Unwrap() error { return ErrNoPluginRegistered }

// Error implements the error interface.
func (e *DuplicatePluginError) Error() string {
	return fmt.Sprintf("build system plugin for project %q already registered", e.Project)
}

// Unwrap returns ErrDuplicatePlugin for errors.Is() compatibility.
func (e *DuplicatePluginError) Unwrap() error { return ErrDuplicatePlugin }

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[model.Project]BuildSystem)}
}

// Register assigns bs to project.
func (r *Registry) Register(project model.Project, bs BuildSystem) error {
	if ok, errs := project.IsValid(); !ok {
		return errors.Join(errs...)
	}
	if bs == nil {
		return fmt.Errorf("register %s: %w", project, ErrNilPlugin)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("register %s: %w", project, ErrRegistryFrozen)
	}
	if _, exists := r.plugins[project]; exists {
		return &DuplicatePluginError{Project: project}
	}
	r.plugins[project] = bs
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Resolve returns the plugin registered for project. The handle is unbound;
// callers apply the detected toolchain with WithJavaVersion.
func (r *Registry) Resolve(project model.Project) (BuildSystem, error) {
	r.mu.RLock()
	bs, ok := r.plugins[project]
	r.mu.RUnlock()
	if !ok {
		return nil, &NoPluginRegisteredError{Project: project}
	}
	return bs, nil
}

// Projects returns the registered projects sorted by identifier.
func (r *Registry) Projects() []model.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Project, 0, len(r.plugins))
	for p := range r.plugins {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
