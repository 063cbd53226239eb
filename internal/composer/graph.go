package composer

import (
	"context"
	"fmt"
	"sync"
)

// Edge is a directed relation between two node ids within a graph. A nil
// Guard makes the edge unconditional: the successor becomes ready once the
// predecessor reaches any terminal state. A non-nil Guard gates readiness on
// the predecessor's terminal status; a false guard sends the successor
// directly to StatusSkipped.
type Edge struct {
	From  string
	To    string
	Guard Guard
}

// Conditional reports whether the edge carries a guard.
func (e Edge) Conditional() bool { return e.Guard != nil }

// Graph is a composite of tasks and nested graphs connected by edges. It
// satisfies the Node contract itself, so graphs nest arbitrarily.
//
// Construction (AddNode, AddEdge) is not safe for concurrent use; build the
// graph fully, then hand it to an Executor. A graph holds per-run node
// states; Clear must be called before the same graph is executed again.
type Graph struct {
	id       string
	name     string
	ports    Ports
	bindings Bindings

	nodes    map[string]Node
	order    []string
	outbound map[string][]Edge
	inbound  map[string][]Edge

	mu    sync.Mutex
	state map[string]*nodeState
}

// nodeState is the per-run execution state of one node id.
type nodeState struct {
	status Status
	// remaining counts inbound edges whose predecessor is not yet terminal.
	remaining int
	// guardFailed is set when any inbound conditional edge's guard evaluated
	// false; the node can then only be skipped.
	guardFailed bool
}

// GraphOption configures a Graph at construction.
type GraphOption func(*Graph)

// WithGraphName overrides the graph's human-readable name.
func WithGraphName(name string) GraphOption {
	return func(g *Graph) { g.name = name }
}

// WithGraphPorts declares the port schema the graph exposes when nested in
// an outer graph.
func WithGraphPorts(ports Ports) GraphOption {
	return func(g *Graph) { g.ports = ports }
}

// WithGraphBindings binds the graph's port names to outer context keys.
func WithGraphBindings(b Bindings) GraphOption {
	return func(g *Graph) { g.bindings = b }
}

// NewGraph returns an empty graph with the given id.
func NewGraph(id string, opts ...GraphOption) *Graph {
	g := &Graph{
		id:       id,
		name:     id,
		nodes:    make(map[string]Node),
		outbound: make(map[string][]Edge),
		inbound:  make(map[string][]Edge),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Graph) ID() string         { return g.id }
func (g *Graph) Name() string       { return g.name }
func (g *Graph) Ports() Ports       { return g.ports }
func (g *Graph) Bindings() Bindings { return g.bindings }

// AddNode registers a node. Node ids must be unique within the graph.
func (g *Graph) AddNode(n Node) error {
	if n.ID() == "" {
		return ErrEmptyNodeID
	}
	if _, exists := g.nodes[n.ID()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID())
	}
	g.nodes[n.ID()] = n
	g.order = append(g.order, n.ID())
	return nil
}

// AddEdge adds an unconditional dependency edge from one node to another.
func (g *Graph) AddEdge(from, to string) error {
	return g.addEdge(Edge{From: from, To: to})
}

// AddConditionalEdge adds an edge whose successor is gated on the
// predecessor's terminal status satisfying guard.
func (g *Graph) AddConditionalEdge(from, to string, guard Guard) error {
	if guard == nil {
		return fmt.Errorf("composer: conditional edge %s -> %s has nil guard", from, to)
	}
	return g.addEdge(Edge{From: from, To: to, Guard: guard})
}

func (g *Graph) addEdge(e Edge) error {
	if e.From == e.To {
		return fmt.Errorf("%w: %s -> %s", ErrSelfEdge, e.From, e.To)
	}
	if _, ok := g.nodes[e.From]; !ok {
		return fmt.Errorf("%w: edge source %q", ErrUnknownNode, e.From)
	}
	if _, ok := g.nodes[e.To]; !ok {
		return fmt.Errorf("%w: edge destination %q", ErrUnknownNode, e.To)
	}
	for _, existing := range g.outbound[e.From] {
		if existing.To == e.To {
			return fmt.Errorf("composer: duplicate edge %s -> %s", e.From, e.To)
		}
	}
	g.outbound[e.From] = append(g.outbound[e.From], e)
	g.inbound[e.To] = append(g.inbound[e.To], e)
	return nil
}

// Node returns the node registered under id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeIDs returns all node ids in insertion order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// sinks returns the ids of nodes with no outgoing edges.
func (g *Graph) sinks() []string {
	var out []string
	for _, id := range g.order {
		if len(g.outbound[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Validate checks the graph for construction errors: cyclic edges and
// required input ports bound to keys that neither the seed keys nor any
// upstream node's outputs can produce. Seed keys are the context keys the
// host promises to populate before execution.
func (g *Graph) Validate(seedKeys ...string) error {
	if err := g.detectCycles(); err != nil {
		return err
	}
	return g.validatePorts(seedKeys)
}

// detectCycles runs a depth-first search with the classic three-set
// coloring: permanent nodes are fully visited, temporary nodes sit in the
// current recursion stack.
func (g *Graph) detectCycles() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("%w: involving node %q", ErrCycle, id)
		}
		temporary[id] = true
		for _, e := range g.outbound[id] {
			if err := visit(e.To); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, id := range g.order {
		if !permanent[id] {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// validatePorts walks nodes in topological order, accumulating the set of
// keys producible at each node (seed keys plus every ancestor's bound
// outputs), and rejects required input bindings that nothing can satisfy.
func (g *Graph) validatePorts(seedKeys []string) error {
	seed := make(map[string]struct{}, len(seedKeys))
	for _, k := range seedKeys {
		seed[k] = struct{}{}
	}

	// producible[id] holds the keys available before node id runs.
	producible := make(map[string]map[string]struct{}, len(g.nodes))
	remaining := make(map[string]int, len(g.nodes))
	var queue []string
	for _, id := range g.order {
		remaining[id] = len(g.inbound[id])
		if remaining[id] == 0 {
			queue = append(queue, id)
			producible[id] = seed
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		n := g.nodes[id]
		if err := validateBindings(id, n.Ports(), n.Bindings(), producible[id]); err != nil {
			return err
		}

		// Keys available downstream of this node.
		after := make(map[string]struct{}, len(producible[id])+len(n.Ports().Outputs))
		for k := range producible[id] {
			after[k] = struct{}{}
		}
		for _, port := range n.Ports().Outputs {
			after[n.Bindings().Key(port.Name)] = struct{}{}
		}

		for _, e := range g.outbound[id] {
			dep := e.To
			if producible[dep] == nil {
				producible[dep] = make(map[string]struct{})
				for k := range seed {
					producible[dep][k] = struct{}{}
				}
			}
			for k := range after {
				producible[dep][k] = struct{}{}
			}
			remaining[dep]--
			if remaining[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	return nil
}

// Clear resets all per-run node states so the graph can be executed again.
// It is idempotent and safe to call on a graph that never ran.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = nil
}

// beginRun installs fresh per-run state. It fails if state from a previous
// run is still present.
func (g *Graph) beginRun() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != nil {
		return fmt.Errorf("%w: %q", ErrNotCleared, g.id)
	}
	g.state = make(map[string]*nodeState, len(g.nodes))
	for _, id := range g.order {
		g.state[id] = &nodeState{status: StatusPending, remaining: len(g.inbound[id])}
	}
	return nil
}

// Run implements Node by executing the graph through an executor with
// default settings, so a nested graph needs no special-casing at the
// composition boundary. The inner run observes the outer context through a
// view that applies the graph's port bindings and namespaces its audit
// entries.
func (g *Graph) Run(ctx context.Context, ec *Context) (Status, *NodeInfo) {
	return NewExecutor().run(ctx, g, g.innerView(ec))
}

// innerView derives the context view a nested execution of g should see.
func (g *Graph) innerView(ec *Context) *Context {
	remap := make(map[string]string)
	for _, port := range g.ports.Inputs {
		remap[port.Name] = g.bindings.Key(port.Name)
	}
	for _, port := range g.ports.Outputs {
		remap[port.Name] = g.bindings.Key(port.Name)
	}
	return ec.View(g.id, remap)
}
