package composer

import (
	"context"
	"fmt"
	"time"
)

// Node is a schedulable unit in a task graph: either a leaf Task or a
// composite Graph. Identity is a stable id unique within the owning graph,
// used to correlate audit entries and edge endpoints. A node is immutable
// once constructed; the only record of its execution lives in the Context.
type Node interface {
	// ID returns the node's stable identifier within its owning graph.
	ID() string
	// Name returns the node's human-readable name.
	Name() string
	// Ports returns the node's declared port schema.
	Ports() Ports
	// Bindings returns the node's port-name to context-key bindings.
	Bindings() Bindings
	// Run executes the node against the shared context and returns its
	// terminal status along with the info record describing the execution.
	// Run never panics across the node boundary and never returns
	// StatusPending or StatusRunning.
	Run(ctx context.Context, ec *Context) (Status, *NodeInfo)
}

// TaskFunc is the computation of a leaf task. It reads resolved inputs from
// the TaskRun, stages outputs and an optional diagnostic detail, and returns
// an error to signal failure. Returned errors never escape the task
// boundary; they are converted to StatusFailure.
type TaskFunc func(ctx context.Context, run *TaskRun) error

// Task is a leaf unit of work. It resolves its declared input ports against
// the context, invokes its TaskFunc, and commits staged outputs back to the
// context only on success.
type Task struct {
	id       string
	name     string
	ports    Ports
	bindings Bindings
	fn       TaskFunc
}

// TaskOption configures a Task at construction.
type TaskOption func(*Task)

// WithName overrides the task's human-readable name (defaults to the id).
func WithName(name string) TaskOption {
	return func(t *Task) { t.name = name }
}

// WithBindings binds port names to context keys. Ports absent from the map
// bind to keys equal to their own names.
func WithBindings(b Bindings) TaskOption {
	return func(t *Task) { t.bindings = b }
}

// NewTask constructs a leaf task with the given id, port schema, and
// computation.
func NewTask(id string, ports Ports, fn TaskFunc, opts ...TaskOption) *Task {
	t := &Task{id: id, name: id, ports: ports, fn: fn}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Task) ID() string         { return t.id }
func (t *Task) Name() string       { return t.name }
func (t *Task) Ports() Ports       { return t.ports }
func (t *Task) Bindings() Bindings { return t.bindings }

// Run implements Node. Outputs are committed to the context only when the
// computation succeeds and the run has not been aborted in the meantime, so
// a failing or aborted task never partially commits.
func (t *Task) Run(ctx context.Context, ec *Context) (Status, *NodeInfo) {
	if ec.Aborted() {
		return StatusAborted, newInfo(t.id, t.name, StatusAborted, "aborted before start")
	}

	run := &TaskRun{
		ec:      ec,
		inputs:  make(map[string]any, len(t.ports.Inputs)),
		outputs: make(map[string]any, len(t.ports.Outputs)),
	}

	info := &NodeInfo{NodeID: t.id, Name: t.name, StartedAt: time.Now()}
	finish := func(status Status, message string) (Status, *NodeInfo) {
		info.FinishedAt = time.Now()
		info.Status = status
		info.Message = message
		info.Detail = run.detail
		return status, info
	}

	for _, port := range t.ports.Inputs {
		key := t.bindings.Key(port.Name)
		value, err := ec.Get(key)
		if err != nil {
			if port.Required {
				return finish(StatusFailure, fmt.Sprintf("input port %q: %v", port.Name, err))
			}
			continue
		}
		run.inputs[port.Name] = value
	}

	if err := t.fn(ctx, run); err != nil {
		return finish(StatusFailure, err.Error())
	}

	// A task that finishes after abort must not commit outputs or report
	// success; its result is not part of the run's effective state.
	if ec.Aborted() {
		run.outputs = nil
		return finish(StatusAborted, "aborted during execution")
	}

	for _, port := range t.ports.Outputs {
		value, staged := run.outputs[port.Name]
		if !staged {
			if port.Required {
				return finish(StatusFailure, fmt.Sprintf("output port %q not produced", port.Name))
			}
			continue
		}
		ec.Set(t.bindings.Key(port.Name), value)
	}

	return finish(StatusSuccess, "")
}

// TaskRun carries a single execution's resolved inputs and staged outputs
// between a Task and its TaskFunc. It is owned by one task for the duration
// of the run and is not safe for sharing across goroutines.
type TaskRun struct {
	ec      *Context
	inputs  map[string]any
	outputs map[string]any
	detail  any
}

// RunID returns the identifier of the enclosing pipeline run.
func (r *TaskRun) RunID() string { return r.ec.RunID() }

// Aborted reports whether the run has been aborted. Long-running task
// functions poll it so they unwind promptly instead of finishing work whose
// result will be discarded.
func (r *TaskRun) Aborted() bool { return r.ec.Aborted() }

// Input returns the resolved value of a declared input port.
func (r *TaskRun) Input(port string) (any, bool) {
	v, ok := r.inputs[port]
	return v, ok
}

// SetOutput stages a value for a declared output port. Staged values are
// committed to the context only if the task succeeds.
func (r *TaskRun) SetOutput(port string, value any) {
	r.outputs[port] = value
}

// SetDetail attaches a kind-specific diagnostic payload to the task's
// NodeInfo. Details are for post-run introspection and are never written to
// the context.
func (r *TaskRun) SetDetail(detail any) {
	r.detail = detail
}
