// SPDX-License-Identifier: MPL-2.0

package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrEmptyTrain is returned when a train or train iteration has no modules.
	ErrEmptyTrain = errors.New("train has no modules")
	// ErrDuplicateProject is the sentinel error wrapped by DuplicateProjectError.
	ErrDuplicateProject = errors.New("duplicate project in train")
)

type (
	// Module is one project of a train at a given version. DependsOn lists the
	// projects that must be built before this one.
	Module struct {
		Project   Project
		Version   Version
		DependsOn []Project
	}

	// Train is a named set of modules released together, in dependency order.
	Train struct {
		Name    string
		Modules []Module
	}

	// DuplicateProjectError is returned when a project appears twice in a train.
	DuplicateProjectError struct {
		Train   string
		Project Project
	}
)

// Error implements the error interface.
func (e *DuplicateProjectError) Error() string {
	return fmt.Sprintf("train %q lists project %q more than once", e.Train, e.Project)
}

// Unwrap returns ErrDuplicateProject for errors.Is() compatibility.
func (e *DuplicateProjectError) Unwrap() error { return ErrDuplicateProject }

// String renders the module as "<project> <version>".
func (m Module) String() string {
	if m.Version.IsZero() {
		return m.Project.String()
	}
	return m.Project.String() + " " + m.Version.String()
}

// GetProject returns the module project. It lets Module act as an executor subject.
func (m Module) GetProject() Project { return m.Project }

// Module returns the module of the given project.
func (t Train) Module(project Project) (Module, bool) {
	for _, m := range t.Modules {
		if m.Project == project {
			return m, true
		}
	}
	return Module{}, false
}

// String returns the train name.
func (t Train) String() string { return t.Name }

// Validate checks that the train has modules, that every project is valid, and
// that no project is listed twice.
func (t Train) Validate() error {
	if len(t.Modules) == 0 {
		return fmt.Errorf("train %q: %w", t.Name, ErrEmptyTrain)
	}
	seen := make(map[Project]bool, len(t.Modules))
	for _, m := range t.Modules {
		if valid, errs := m.Project.IsValid(); !valid {
			return errs[0]
		}
		if seen[m.Project] {
			return &DuplicateProjectError{Train: t.Name, Project: m.Project}
		}
		seen[m.Project] = true
	}
	return nil
}

type (
	// ModuleIteration is one module's participation in a train iteration.
	// Fields are unexported for immutability; use the accessors.
	ModuleIteration struct {
		module    Module
		iteration Iteration
		train     string
	}

	// TrainIteration is a train bound to one iteration. Modules keep train order.
	TrainIteration struct {
		train     Train
		iteration Iteration
		modules   []ModuleIteration
	}
)

// NewModuleIteration creates a ModuleIteration.
func NewModuleIteration(module Module, iteration Iteration, train string) ModuleIteration {
	module.DependsOn = slices.Clone(module.DependsOn)
	return ModuleIteration{module: module, iteration: iteration, train: train}
}

// Project returns the module project.
func (m ModuleIteration) Project() Project { return m.module.Project }

// GetProject returns the module project. It lets ModuleIteration act as an executor subject.
func (m ModuleIteration) GetProject() Project { return m.module.Project }

// Module returns the underlying module.
func (m ModuleIteration) Module() Module { return m.module }

// Version returns the module version of the train.
func (m ModuleIteration) Version() Version { return m.module.Version }

// ReleaseVersion returns the version artifacts of this iteration are published
// under ("3.3.0-RC1" for previews, "3.3.0" otherwise).
func (m ModuleIteration) ReleaseVersion() Version {
	return m.module.Version.WithQualifier(m.iteration.VersionQualifier())
}

// Iteration returns the iteration.
func (m ModuleIteration) Iteration() Iteration { return m.iteration }

// TrainName returns the name of the owning train.
func (m ModuleIteration) TrainName() string { return m.train }

// IsZero reports whether m is the zero ModuleIteration.
func (m ModuleIteration) IsZero() bool { return m.module.Project == "" }

// String renders "<project> <version> (<train> <iteration>)".
func (m ModuleIteration) String() string {
	return fmt.Sprintf("%s %s (%s %s)", m.module.Project, m.module.Version, m.train, m.iteration)
}

// NewTrainIteration binds a train to an iteration. The train must be non-empty
// and list each project once; module order is preserved as given.
func NewTrainIteration(train Train, iteration Iteration) (TrainIteration, error) {
	if iteration.IsZero() {
		return TrainIteration{}, &InvalidIterationError{}
	}
	if err := train.Validate(); err != nil {
		return TrainIteration{}, err
	}

	train.Modules = slices.Clone(train.Modules)
	modules := make([]ModuleIteration, len(train.Modules))
	for i, m := range train.Modules {
		modules[i] = NewModuleIteration(m, iteration, train.Name)
	}
	return TrainIteration{train: train, iteration: iteration, modules: modules}, nil
}

// Train returns the train.
func (t TrainIteration) Train() Train { return t.train }

// Iteration returns the train-wide iteration.
func (t TrainIteration) Iteration() Iteration { return t.iteration }

// Modules returns the module iterations in train (dependency) order.
func (t TrainIteration) Modules() []ModuleIteration { return slices.Clone(t.modules) }

// Len returns the number of modules.
func (t TrainIteration) Len() int { return len(t.modules) }

// IsZero reports whether t is the zero TrainIteration.
func (t TrainIteration) IsZero() bool { return len(t.modules) == 0 }

// Module returns the module iteration of the given project.
func (t TrainIteration) Module(project Project) (ModuleIteration, bool) {
	for _, m := range t.modules {
		if m.Project() == project {
			return m, true
		}
	}
	return ModuleIteration{}, false
}

// ModulesExcept returns the module iterations whose project is not in excluded,
// in train order.
func (t TrainIteration) ModulesExcept(excluded ...Project) []ModuleIteration {
	result := make([]ModuleIteration, 0, len(t.modules))
	for _, m := range t.modules {
		if !slices.Contains(excluded, m.Project()) {
			result = append(result, m)
		}
	}
	return result
}

// String renders "<train> <iteration>".
func (t TrainIteration) String() string {
	return strings.TrimSpace(t.train.Name + " " + t.iteration.String())
}
