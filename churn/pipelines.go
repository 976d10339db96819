package churn

import (
	"embed"
	"fmt"

	"github.com/kbukum/mlopskit/dag"
)

//go:embed pipelines/*.yaml
var definitions embed.FS

// embeddedLoader serves the definitions compiled into the binary.
type embeddedLoader struct{}

func (embeddedLoader) Load(name string) (*dag.Definition, error) {
	data, err := definitions.ReadFile("pipelines/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("churn: pipeline %q not embedded: %w", name, err)
	}
	return dag.ParseDefinition(data)
}

// chainLoader tries each loader in turn.
type chainLoader []dag.DefinitionLoader

func (c chainLoader) Load(name string) (*dag.Definition, error) {
	var lastErr error
	for _, l := range c {
		def, err := l.Load(name)
		if err == nil {
			return def, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// newLoader prefers definitions found in dir over the embedded ones.
func newLoader(dir string) dag.DefinitionLoader {
	if dir == "" {
		return embeddedLoader{}
	}
	return chainLoader{dag.NewFileLoader(dir), embeddedLoader{}}
}

// buildPipeline loads name and resolves its steps against registry.
func buildPipeline(loader dag.DefinitionLoader, registry *dag.Registry, name string) (*dag.Pipeline, error) {
	def, err := loader.Load(name)
	if err != nil {
		return nil, err
	}
	if def.Name == "" {
		def.Name = name
	}
	return dag.Build(def, registry)
}
