package dag

import "fmt"

// Pipeline is an ordered list of steps plus explicit dependencies. Edges
// are also derived from artifact names: a step reading X depends on the
// step producing X.
type Pipeline struct {
	Name string

	steps     []Step
	dependsOn map[string][]string
}

// New creates a pipeline from steps in declaration order.
func New(name string, steps ...Step) *Pipeline {
	return &Pipeline{Name: name, steps: steps, dependsOn: make(map[string][]string)}
}

// Add appends a step.
func (p *Pipeline) Add(step Step, dependsOn ...string) *Pipeline {
	p.steps = append(p.steps, step)
	if len(dependsOn) > 0 {
		p.dependsOn[step.Name()] = append(p.dependsOn[step.Name()], dependsOn...)
	}
	return p
}

// DependsOn declares that step runs after upstream regardless of artifacts.
func (p *Pipeline) DependsOn(step string, upstream ...string) *Pipeline {
	p.dependsOn[step] = append(p.dependsOn[step], upstream...)
	return p
}

// Steps returns the steps in declaration order.
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Graph validates the pipeline and derives its dependency graph. Step names
// and output names must be unique; explicit dependencies must name steps of
// this pipeline.
func (p *Pipeline) Graph() (*Graph, error) {
	g := &Graph{
		Steps: make(map[string]Step, len(p.steps)),
		order: make(map[string]int, len(p.steps)),
	}
	producers := make(map[string]string)

	for i, s := range p.steps {
		name := s.Name()
		if _, dup := g.Steps[name]; dup {
			return nil, fmt.Errorf("dag: pipeline %q: duplicate step %q", p.Name, name)
		}
		g.Steps[name] = s
		g.order[name] = i
		for _, out := range s.Outputs() {
			if prev, dup := producers[out]; dup {
				return nil, fmt.Errorf("dag: pipeline %q: output %q produced by both %q and %q", p.Name, out, prev, name)
			}
			producers[out] = name
		}
	}

	seen := make(map[Edge]bool)
	addEdge := func(e Edge) {
		if !seen[e] {
			seen[e] = true
			g.Edges = append(g.Edges, e)
		}
	}

	for _, s := range p.steps {
		for _, in := range s.Inputs() {
			if from, ok := producers[in]; ok && from != s.Name() {
				addEdge(Edge{From: from, To: s.Name()})
			}
		}
	}
	for to, ups := range p.dependsOn {
		if _, ok := g.Steps[to]; !ok {
			return nil, fmt.Errorf("dag: pipeline %q: dependency declared for unknown step %q", p.Name, to)
		}
		for _, from := range ups {
			if _, ok := g.Steps[from]; !ok {
				return nil, fmt.Errorf("dag: pipeline %q: step %q depends on unknown step %q", p.Name, to, from)
			}
			addEdge(Edge{From: from, To: to})
		}
	}

	return g, nil
}
