package dag

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Definition is the YAML form of a pipeline.
type Definition struct {
	// Name is the pipeline identifier.
	Name string `yaml:"name"`
	// Steps lists the pipeline's steps in declaration order.
	Steps []StepDef `yaml:"steps"`
}

// StepDef references a registered step.
type StepDef struct {
	// Step is the registry lookup key.
	Step string `yaml:"step"`
	// DependsOn lists steps that must run first, on top of the edges implied
	// by artifact names.
	DependsOn []string `yaml:"depends_on,omitempty"`
}

// DefinitionLoader loads pipeline definitions by name.
type DefinitionLoader interface {
	Load(name string) (*Definition, error)
}

// FileLoader loads definitions from YAML files on disk.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader that searches dirs for {name}.yaml or
// {name}.yml.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load returns the first matching definition.
func (l *FileLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			def, err := ParseDefinition(data)
			if err != nil {
				return nil, fmt.Errorf("dag: parsing %s: %w", path, err)
			}
			if def.Name == "" {
				def.Name = name
			}
			return def, nil
		}
	}
	return nil, fmt.Errorf("dag: pipeline %q not found in %v", name, l.dirs)
}

// ParseDefinition decodes a YAML pipeline definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("dag: pipeline %q declares no steps", def.Name)
	}
	return &def, nil
}

// Build resolves def against registry into a runnable pipeline.
func Build(def *Definition, registry *Registry) (*Pipeline, error) {
	p := New(def.Name)
	for _, sd := range def.Steps {
		step, ok := registry.Get(sd.Step)
		if !ok {
			return nil, fmt.Errorf("dag: pipeline %q: step %q not found in registry", def.Name, sd.Step)
		}
		p.Add(step, sd.DependsOn...)
	}
	if _, err := p.Graph(); err != nil {
		return nil, err
	}
	return p, nil
}
