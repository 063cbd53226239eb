package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/Jm20010201/tesseract-planning/internal/composer"
)

// TaskSpec is a kind reference from a pipeline description: which factory to
// invoke and the identity, bindings, and kind-specific options to build the
// node with.
type TaskSpec struct {
	ID       string
	Kind     string
	Name     string
	Bindings composer.Bindings
	Options  map[string]any
}

// Factory builds a node of one kind from its spec.
type Factory func(spec TaskSpec) (composer.Node, error)

// Registry holds the node factories known to a single application instance.
type Registry struct {
	factories map[string]Factory
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under a kind name. Registration happens once at
// startup; a duplicate kind is a programming error.
func (r *Registry) Register(kind string, f Factory) {
	if _, exists := r.factories[kind]; exists {
		panic(fmt.Sprintf("task factory with kind '%s' already registered", kind))
	}
	slog.Debug("Registering task factory.", "kind", kind)
	r.factories[kind] = f
}

// Build constructs the node a spec describes.
func (r *Registry) Build(spec TaskSpec) (composer.Node, error) {
	f, ok := r.factories[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown task kind %q (node %q)", spec.Kind, spec.ID)
	}
	if spec.ID == "" {
		return nil, fmt.Errorf("task of kind %q has no id", spec.Kind)
	}
	node, err := f(spec)
	if err != nil {
		return nil, fmt.Errorf("building node %q of kind %q: %w", spec.ID, spec.Kind, err)
	}
	return node, nil
}

// Kinds returns the registered kind names sorted.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}
