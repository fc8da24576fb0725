package chain

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/validation"
)

// Definition describes a linear pipeline by component name.
//
//	name: triage
//	steps:
//	  - component: normalize
//	  - parallel: [sentiment, topics]
//	    combine: collect
//	  - include: report
type Definition struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Steps       []StepDef `yaml:"steps"`
}

// StepDef is one step of a Definition. Exactly one of Component, Include
// and Parallel is set.
type StepDef struct {
	// Name overrides the generated name of a parallel step.
	Name      string `yaml:"name,omitempty"`
	Component string `yaml:"component,omitempty"`
	// Include splices in another definition, resolved through the loader.
	Include  string   `yaml:"include,omitempty"`
	Parallel []string `yaml:"parallel,omitempty"`
	// Combine names the combiner for a parallel step. Defaults to "collect".
	Combine        string `yaml:"combine,omitempty"`
	CancelOnError  bool   `yaml:"cancel_on_error,omitempty"`
	MaxConcurrency int    `yaml:"max_concurrency,omitempty"`
}

// Validate checks the definition's shape without consulting a registry.
func (d *Definition) Validate() error {
	v := validation.New()
	v.Required("name", d.Name)
	v.Check(len(d.Steps) > 0, "steps", "must not be empty")
	for i, s := range d.Steps {
		set := 0
		for _, ok := range []bool{s.Component != "", s.Include != "", len(s.Parallel) > 0} {
			if ok {
				set++
			}
		}
		v.Check(set == 1, fmt.Sprintf("steps[%d]", i), "must set exactly one of component, include, parallel")
		v.Min(fmt.Sprintf("steps[%d].max_concurrency", i), s.MaxConcurrency, 0)
	}
	return v.Validate()
}

// ParseDefinition decodes and validates a YAML definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.Serialization("pipeline definition", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadDefinition reads a definition from path.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NotFound("pipeline definition", path).WithCause(err)
	}
	d, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("chain: %s: %w", path, err)
	}
	return d, nil
}

// Loader finds definitions by name, for include steps.
type Loader interface {
	Load(name string) (*Definition, error)
}

// FileLoader searches directories for {name}.yaml or {name}.yml.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader over dirs, searched in order.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load returns the first definition found for name.
func (l *FileLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			return LoadDefinition(path)
		}
	}
	return nil, errors.NotFound("pipeline definition", name).WithDetail("dirs", l.dirs)
}

// ResolveOption configures Resolve.
type ResolveOption func(*resolver)

// WithLoader sets the loader used for include steps.
func WithLoader(l Loader) ResolveOption {
	return func(r *resolver) { r.loader = l }
}

type resolver struct {
	registry *Registry
	loader   Loader
	stack    map[string]bool
}

// Resolve turns a definition into a type-checked dynamic pipeline, looking
// up components and combiners in reg. Includes are expanded in place;
// an include cycle is an error.
func Resolve(def *Definition, reg *Registry, opts ...ResolveOption) (AnyNode, error) {
	r := &resolver{registry: reg, stack: make(map[string]bool)}
	for _, opt := range opts {
		opt(r)
	}
	steps, err := r.steps(def)
	if err != nil {
		return nil, err
	}
	return NewDynamic().Named(def.Name).Add(steps...).Build()
}

func (r *resolver) steps(def *Definition) ([]AnyNode, error) {
	if r.stack[def.Name] {
		return nil, errors.New(errors.ErrCodeComposition,
			fmt.Sprintf("circular include of pipeline %s", def.Name))
	}
	r.stack[def.Name] = true
	defer delete(r.stack, def.Name)

	var out []AnyNode
	for i, s := range def.Steps {
		switch {
		case s.Component != "":
			n, ok := r.registry.Get(s.Component)
			if !ok {
				return nil, errors.NotFound("component", s.Component)
			}
			out = append(out, n)

		case s.Include != "":
			if r.loader == nil {
				return nil, errors.New(errors.ErrCodeInvalidInput,
					fmt.Sprintf("pipeline %s includes %s but no loader is configured", def.Name, s.Include))
			}
			sub, err := r.loader.Load(s.Include)
			if err != nil {
				return nil, err
			}
			subSteps, err := r.steps(sub)
			if err != nil {
				return nil, err
			}
			out = append(out, subSteps...)

		default:
			name := s.Name
			if name == "" {
				name = fmt.Sprintf("%s.parallel[%d]", def.Name, i)
			}
			n, err := r.registry.fanOut(name, s)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
	}
	return out, nil
}
