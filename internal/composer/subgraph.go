package composer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Group links sibling sub-graph adapters so that one adapter's failure can
// cancel the others sideways, before the run-wide abort flag has been
// observed by every branch.
type Group struct {
	mu      sync.Mutex
	members []*SubGraphNode
}

// NewGroup returns an empty sibling group.
func NewGroup() *Group { return &Group{} }

func (g *Group) add(n *SubGraphNode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members = append(g.members, n)
}

// abortOthers aborts every member except the caller.
func (g *Group) abortOthers(except *SubGraphNode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members {
		if m != except {
			m.Abort()
		}
	}
}

// AbortAll aborts every member. Hosts use it for external cancel requests.
func (g *Group) AbortAll() {
	g.abortOthers(nil)
}

// SubGraphNode wraps an inner graph plus its own executor invocation as a
// single node of an outer graph. On dispatch it projects a context view for
// the inner run; on completion it forwards SUCCESS through the success
// callback chain. On FAILURE it first aborts every sibling in its group and
// then invokes the failure callback, so whole sub-pipelines compose and
// abort the same way leaf tasks do, at any nesting depth.
type SubGraphNode struct {
	id       string
	name     string
	inner    *Graph
	exec     *Executor
	ports    Ports
	bindings Bindings

	onSuccess Callback
	onFailure Callback
	group     *Group

	aborted atomic.Bool
}

// SubGraphOption configures a SubGraphNode.
type SubGraphOption func(*SubGraphNode)

// WithSubGraphName overrides the adapter's human-readable name.
func WithSubGraphName(name string) SubGraphOption {
	return func(n *SubGraphNode) { n.name = name }
}

// WithSubGraphExecutor sets the executor used for the inner run.
func WithSubGraphExecutor(e *Executor) SubGraphOption {
	return func(n *SubGraphNode) {
		if e != nil {
			n.exec = e
		}
	}
}

// WithSubGraphPorts declares the ports the adapter exposes to the outer
// graph; the inner run sees them under their port names.
func WithSubGraphPorts(ports Ports) SubGraphOption {
	return func(n *SubGraphNode) { n.ports = ports }
}

// WithSubGraphBindings binds the adapter's port names to outer context keys.
func WithSubGraphBindings(b Bindings) SubGraphOption {
	return func(n *SubGraphNode) { n.bindings = b }
}

// OnSuccessCallback registers the callback invoked when the inner graph succeeds.
func OnSuccessCallback(cb Callback) SubGraphOption {
	return func(n *SubGraphNode) { n.onSuccess = cb }
}

// OnFailureCallback registers the callback invoked when the inner graph fails.
func OnFailureCallback(cb Callback) SubGraphOption {
	return func(n *SubGraphNode) { n.onFailure = cb }
}

// InGroup enrolls the adapter in a sibling group for sideways cancellation.
func InGroup(g *Group) SubGraphOption {
	return func(n *SubGraphNode) {
		n.group = g
		g.add(n)
	}
}

// NewSubGraphNode wraps inner as a single node with the given id.
func NewSubGraphNode(id string, inner *Graph, opts ...SubGraphOption) *SubGraphNode {
	n := &SubGraphNode{id: id, name: id, inner: inner, exec: NewExecutor()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *SubGraphNode) ID() string         { return n.id }
func (n *SubGraphNode) Name() string       { return n.name }
func (n *SubGraphNode) Ports() Ports       { return n.ports }
func (n *SubGraphNode) Bindings() Bindings { return n.bindings }

// Abort marks the adapter cancelled. A cancelled adapter refuses to start
// its inner run and reports StatusAborted when dispatched.
func (n *SubGraphNode) Abort() {
	n.aborted.Store(true)
}

// Reset clears the inner graph's run state and the adapter's abort mark so
// the adapter can participate in a fresh run.
func (n *SubGraphNode) Reset() {
	n.inner.Clear()
	n.aborted.Store(false)
}

// Run implements Node.
func (n *SubGraphNode) Run(ctx context.Context, ec *Context) (Status, *NodeInfo) {
	if n.aborted.Load() || ec.Aborted() {
		return StatusAborted, newInfo(n.id, n.name, StatusAborted, "aborted before start")
	}

	remap := make(map[string]string)
	for _, port := range n.ports.Inputs {
		remap[port.Name] = n.bindings.Key(port.Name)
	}
	for _, port := range n.ports.Outputs {
		remap[port.Name] = n.bindings.Key(port.Name)
	}
	view := ec.View(n.id, remap)

	inner, err := n.exec.Execute(ctx, n.inner, view, nil, nil)
	if err != nil {
		status := StatusFailure
		info := newInfo(n.id, n.name, status, err.Error())
		n.fail(info)
		return status, info
	}

	// Present the inner run's outcome under the adapter's own identity.
	info := &NodeInfo{
		NodeID:     n.id,
		Name:       n.name,
		Status:     inner.Status,
		StartedAt:  inner.StartedAt,
		FinishedAt: inner.FinishedAt,
		Message:    inner.Message,
		Detail:     inner.Detail,
	}

	switch inner.Status {
	case StatusSuccess:
		if n.onSuccess != nil {
			n.onSuccess(info)
		}
	case StatusFailure:
		n.fail(info)
	}
	return inner.Status, info
}

// fail propagates cancellation sideways to siblings that have not completed
// yet, then reports through the failure callback.
func (n *SubGraphNode) fail(info *NodeInfo) {
	if n.group != nil {
		n.group.abortOthers(n)
	}
	if n.onFailure != nil {
		n.onFailure(info)
	}
	if info.FinishedAt.IsZero() {
		info.FinishedAt = time.Now()
	}
}
