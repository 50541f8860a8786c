// SPDX-License-Identifier: MPL-2.0

package train

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/releasetrain/trainctl/internal/dag"
	"github.com/releasetrain/trainctl/internal/issue"
	"github.com/releasetrain/trainctl/internal/model"
	"github.com/releasetrain/trainctl/pkg/cueutil"
)

const (
	// FormatCUE is the CUE descriptor format.
	FormatCUE Format = "cue"
	// FormatYAML is the YAML descriptor format.
	FormatYAML Format = "yaml"
	// FormatTOML is the TOML descriptor format.
	FormatTOML Format = "toml"
)

//go:embed train_schema.cue
var trainSchema []byte

var (
	// ErrUnsupportedFormat is the sentinel error wrapped by UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported train descriptor format")
	// ErrUnknownDependency is the sentinel error wrapped by UnknownDependencyError.
	ErrUnknownDependency = errors.New("unknown dependency")
)

type (
	// Format is a train descriptor encoding.
	Format string

	// UnsupportedFormatError is returned for descriptor files with an unknown extension.
	UnsupportedFormatError struct {
		Path string
	}

	// UnknownDependencyError is returned when a module depends on a project
	// that is not part of the train.
	UnknownDependencyError struct {
		Project    model.Project
		Dependency model.Project
	}

	// Descriptor is the on-disk shape of a train.
	Descriptor struct {
		Name    string             `json:"name" yaml:"name" toml:"name"`
		Modules []ModuleDescriptor `json:"modules" yaml:"modules" toml:"modules"`
	}

	// ModuleDescriptor is the on-disk shape of a module.
	ModuleDescriptor struct {
		Project   string   `json:"project" yaml:"project" toml:"project"`
		Version   string   `json:"version" yaml:"version" toml:"version"`
		DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
	}
)

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported train descriptor %q (use .cue, .yaml, .yml or .toml)", e.Path)
}

// Unwrap returns ErrUnsupportedFormat for errors.Is() compatibility.
func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }

// Error implements the error interface.
func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("module %s depends on %s, which is not part of the train", e.Project, e.Dependency)
}

// Unwrap returns ErrUnknownDependency for errors.Is() compatibility.
func (e *UnknownDependencyError) Unwrap() error { return ErrUnknownDependency }

// FormatOf returns the descriptor format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", &UnsupportedFormatError{Path: path}
	}
}

// Load reads the descriptor at path and returns its train with modules in
// dependency order.
func Load(path string) (model.Train, error) {
	t, err := load(path)
	if err != nil {
		return model.Train{}, issue.NewErrorContext().
			WithOperation("load train descriptor").
			WithResource(path).
			WithSuggestion("Check that every module names a project and a version").
			WithSuggestion("Check that depends_on only names modules of the same train").
			WithIssue(issue.TrainLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return t, nil
}

func load(path string) (model.Train, error) {
	format, err := FormatOf(path)
	if err != nil {
		return model.Train{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Train{}, fmt.Errorf("failed to read train descriptor: %w", err)
	}
	return Parse(data, format, path)
}

// Parse decodes data in the given format. filename is used in error messages.
func Parse(data []byte, format Format, filename string) (model.Train, error) {
	d, err := decode(data, format, filename)
	if err != nil {
		return model.Train{}, err
	}
	return d.Train()
}

func decode(data []byte, format Format, filename string) (*Descriptor, error) {
	switch format {
	case FormatCUE:
		result, err := cueutil.ParseAndDecode[Descriptor](trainSchema, data, "#Train", cueutil.WithFilename(filename))
		if err != nil {
			return nil, err
		}
		return result.Value, nil
	case FormatYAML:
		var d Descriptor
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("%s: invalid YAML: %w", filename, err)
		}
		return &d, nil
	case FormatTOML:
		var d Descriptor
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("%s: invalid TOML: %w", filename, err)
		}
		return &d, nil
	default:
		return nil, &UnsupportedFormatError{Path: filename}
	}
}

// Train converts the descriptor into a model.Train ordered by dependencies.
// Modules that become ready together keep their declaration order.
func (d *Descriptor) Train() (model.Train, error) {
	if strings.TrimSpace(d.Name) == "" {
		return model.Train{}, errors.New("train name must not be empty")
	}

	modules := make(map[model.Project]model.Module, len(d.Modules))
	g := dag.New[model.Project]()
	for _, md := range d.Modules {
		m, err := md.module()
		if err != nil {
			return model.Train{}, err
		}
		if _, dup := modules[m.Project]; dup {
			return model.Train{}, &model.DuplicateProjectError{Train: d.Name, Project: m.Project}
		}
		modules[m.Project] = m
		g.AddNode(m.Project)
	}

	for _, md := range d.Modules {
		project := model.Project(md.Project)
		for _, dep := range modules[project].DependsOn {
			if _, ok := modules[dep]; !ok {
				return model.Train{}, &UnknownDependencyError{Project: project, Dependency: dep}
			}
			g.AddEdge(dep, project)
		}
	}

	order, err := g.Sort()
	if err != nil {
		return model.Train{}, err
	}

	t := model.Train{Name: d.Name, Modules: make([]model.Module, 0, len(order))}
	for _, p := range order {
		t.Modules = append(t.Modules, modules[p])
	}
	if err := t.Validate(); err != nil {
		return model.Train{}, err
	}
	return t, nil
}

func (md ModuleDescriptor) module() (model.Module, error) {
	project := model.Project(md.Project)
	if ok, errs := project.IsValid(); !ok {
		return model.Module{}, errors.Join(errs...)
	}
	version, err := model.ParseVersion(md.Version)
	if err != nil {
		return model.Module{}, fmt.Errorf("module %s: %w", project, err)
	}
	deps := make([]model.Project, 0, len(md.DependsOn))
	for _, dep := range md.DependsOn {
		p := model.Project(dep)
		if ok, errs := p.IsValid(); !ok {
			return model.Module{}, fmt.Errorf("module %s: depends_on: %w", project, errors.Join(errs...))
		}
		deps = append(deps, p)
	}
	return model.Module{Project: project, Version: version, DependsOn: deps}, nil
}
