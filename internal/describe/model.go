package describe

import (
	"fmt"

	"github.com/Jm20010201/tesseract-planning/internal/composer"
	"github.com/Jm20010201/tesseract-planning/internal/registry"
)

// Edge guard names accepted in descriptions.
const (
	OnSuccess = "success"
	OnFailure = "failure"
)

// TaskDecl declares one node of a described pipeline.
type TaskDecl struct {
	ID        string
	Kind      string
	Name      string
	Remap     map[string]string
	Options   map[string]any
	DependsOn []string
}

// EdgeDecl declares one edge. An empty On makes the edge unconditional.
type EdgeDecl struct {
	From string
	To   string
	On   string
}

// Pipeline is a loaded description: the declarative form of one task graph.
type Pipeline struct {
	Name        string
	Description string
	// Seed lists the context keys the host promises to provide before the
	// run; graph validation treats them as producible.
	Seed  []string
	Tasks []TaskDecl
	Edges []EdgeDecl
}

// Build constructs the graph the pipeline describes, resolving task kinds
// through the registry, and validates it against the declared seed keys.
func (p *Pipeline) Build(reg *registry.Registry) (*composer.Graph, error) {
	name := p.Description
	if name == "" {
		name = p.Name
	}
	g := composer.NewGraph(p.Name, composer.WithGraphName(name))

	for _, decl := range p.Tasks {
		node, err := reg.Build(registry.TaskSpec{
			ID:       decl.ID,
			Kind:     decl.Kind,
			Name:     decl.Name,
			Bindings: composer.Bindings(decl.Remap),
			Options:  decl.Options,
		})
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
		if err := g.AddNode(node); err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
	}

	for _, decl := range p.Tasks {
		for _, dep := range decl.DependsOn {
			if err := g.AddEdge(dep, decl.ID); err != nil {
				return nil, fmt.Errorf("pipeline %q: depends_on of %q: %w", p.Name, decl.ID, err)
			}
		}
	}
	for _, edge := range p.Edges {
		guard, err := guardFor(edge.On)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: edge %q -> %q: %w", p.Name, edge.From, edge.To, err)
		}
		if guard == nil {
			err = g.AddEdge(edge.From, edge.To)
		} else {
			err = g.AddConditionalEdge(edge.From, edge.To, guard)
		}
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
	}

	if err := g.Validate(p.Seed...); err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", p.Name, err)
	}
	return g, nil
}

func guardFor(on string) (composer.Guard, error) {
	switch on {
	case "":
		return nil, nil
	case OnSuccess:
		return composer.OnSuccess, nil
	case OnFailure:
		return composer.OnFailure, nil
	default:
		return nil, fmt.Errorf("unknown guard %q, want %q or %q", on, OnSuccess, OnFailure)
	}
}
