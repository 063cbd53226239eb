package composer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Jm20010201/tesseract-planning/internal/ctxlog"
	"github.com/Jm20010201/tesseract-planning/internal/metrics"
)

// DefaultWorkers is the worker-pool size used when none is configured.
const DefaultWorkers = 4

// Callback observes a run's terminal outcome. The failure callback receives
// the info of the node whose failure ended the run (or the graph's own info
// for a pure external abort) and fires exactly once per run.
type Callback func(*NodeInfo)

// Executor traverses a graph's edges, dispatches ready nodes to a bounded
// worker pool, evaluates conditional guards against predecessor outcomes,
// and aggregates the run's terminal status. An Executor holds no per-run
// state and may be reused across graphs and runs.
type Executor struct {
	workers   int
	collector metrics.Collector
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithWorkers sets the worker-pool size (minimum 1).
func WithWorkers(n int) ExecutorOption {
	return func(e *Executor) {
		if n >= 1 {
			e.workers = n
		}
	}
}

// WithCollector wires a metrics collector observing node and run outcomes.
func WithCollector(c metrics.Collector) ExecutorOption {
	return func(e *Executor) {
		if c != nil {
			e.collector = c
		}
	}
}

// NewExecutor returns an executor with DefaultWorkers workers and no-op
// metrics unless configured otherwise.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{workers: DefaultWorkers, collector: metrics.Nop{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// graphRun is the state of one executor invocation.
type graphRun struct {
	g     *Graph
	ec    *Context
	ready chan string
	wg    sync.WaitGroup

	failOnce sync.Once
	failInfo *NodeInfo
}

// Execute runs the graph against the given context. The context must be
// pre-populated with every root-level required key; missing keys, cyclic
// edges, and unbound ports are reported as errors before any node is
// dispatched, in which case neither callback fires.
//
// On a SUCCESS terminal state onSuccess is invoked; on any other terminal
// state onFailure is invoked exactly once. The first node FAILURE aborts the
// shared context, so sibling branches unwind to ABORTED instead of running
// to completion.
//
// Executing the same graph again without an intervening Clear returns
// ErrNotCleared.
func (e *Executor) Execute(ctx context.Context, g *Graph, ec *Context, onSuccess, onFailure Callback) (*NodeInfo, error) {
	logger := ctxlog.FromContext(ctx).With("graph", g.ID(), "run", ec.RunID())

	if err := g.Validate(ec.Keys()...); err != nil {
		return nil, err
	}
	if err := g.beginRun(); err != nil {
		return nil, err
	}

	started := time.Now()
	run := &graphRun{g: g, ec: ec, ready: make(chan string, g.Len())}
	run.wg.Add(g.Len())

	g.mu.Lock()
	var roots []string
	for _, id := range g.order {
		if g.state[id].remaining == 0 {
			roots = append(roots, id)
		}
	}
	g.mu.Unlock()
	logger.Debug("starting execution", "nodes", g.Len(), "roots", len(roots), "workers", e.workers)
	for _, id := range roots {
		run.ready <- id
	}

	var pool errgroup.Group
	for i := 0; i < e.workers; i++ {
		workerID := i
		pool.Go(func() error {
			return e.worker(ctx, run, workerID)
		})
	}

	run.wg.Wait()
	close(run.ready)
	cause := pool.Wait()

	info := e.summarize(g, ec, run, started, cause)
	e.collector.ObserveRun(info.Status.String(), info.Elapsed())
	logger.Info("execution finished", "status", info.Status.String(), "elapsed", info.Elapsed())

	switch info.Status {
	case StatusSuccess:
		if onSuccess != nil {
			onSuccess(info)
		}
	default:
		if onFailure != nil {
			failure := run.failInfo
			if failure == nil {
				failure = info
			}
			onFailure(failure)
		}
	}
	return info, nil
}

// run adapts Execute to the Node contract for nested graph execution.
func (e *Executor) run(ctx context.Context, g *Graph, inner *Context) (Status, *NodeInfo) {
	info, err := e.Execute(ctx, g, inner, nil, nil)
	if err != nil {
		return StatusFailure, newInfo(g.ID(), g.Name(), StatusFailure, err.Error())
	}
	return info.Status, info
}

// worker is the processing loop of one pool member. It drains the ready
// queue to completion and reports the host context's error, if any, so the
// run summary can name the external cancellation cause.
func (e *Executor) worker(ctx context.Context, run *graphRun, workerID int) error {
	logger := ctxlog.FromContext(ctx).With("graph", run.g.ID(), "worker", workerID)

	for id := range run.ready {
		n, ok := run.g.Node(id)
		if !ok {
			continue
		}

		// An expired host context is treated as an external cancel request.
		if ctx.Err() != nil {
			run.ec.Abort()
		}
		if run.ec.Aborted() {
			run.finish(id, StatusAborted, newInfo(id, n.Name(), StatusAborted, "aborted before start"))
			continue
		}

		run.setRunning(id)
		logger.Debug("node dispatched", "node", id)
		started := time.Now()
		status, info := n.Run(ctx, run.ec)
		e.collector.ObserveNode(status.String(), time.Since(started))
		if info == nil {
			info = newInfo(id, n.Name(), status, "")
		}

		if status == StatusFailure {
			logger.Error("node failed", "node", id, "reason", info.Message)
			run.failOnce.Do(func() {
				run.failInfo = info
				run.ec.Abort()
			})
		} else {
			logger.Debug("node finished", "node", id, "status", status.String())
		}
		run.finish(id, status, info)
	}
	return ctx.Err()
}

func (r *graphRun) setRunning(id string) {
	r.g.mu.Lock()
	r.g.state[id].status = StatusRunning
	r.g.mu.Unlock()
}

// finish records a node's terminal state and resolves dependent readiness as
// one atomic step: no other node observes the info without also observing
// the readiness update. Guard-failed dependents cascade to SKIPPED and
// abort-stranded dependents to ABORTED without ever reaching a worker.
func (r *graphRun) finish(id string, status Status, info *NodeInfo) {
	type settled struct {
		id     string
		status Status
		info   *NodeInfo
	}
	g := r.g

	g.mu.Lock()
	worklist := []settled{{id, status, info}}
	var dispatch []string
	for len(worklist) > 0 {
		item := worklist[0]
		worklist = worklist[1:]

		st := g.state[item.id]
		if st.status.Terminal() {
			continue
		}
		st.status = item.status
		r.ec.RecordInfo(item.id, item.info)
		r.wg.Done()

		for _, edge := range g.outbound[item.id] {
			dep := edge.To
			ds := g.state[dep]
			if ds.status.Terminal() {
				continue
			}
			ds.remaining--
			if edge.Guard != nil && !edge.Guard(item.status) {
				ds.guardFailed = true
			}
			if ds.remaining > 0 {
				continue
			}
			n := g.nodes[dep]
			switch {
			case ds.guardFailed:
				reason := fmt.Sprintf("guard unsatisfied after %q finished with %s", item.id, item.status)
				worklist = append(worklist, settled{dep, StatusSkipped, newInfo(dep, n.Name(), StatusSkipped, reason)})
			case r.ec.Aborted():
				worklist = append(worklist, settled{dep, StatusAborted, newInfo(dep, n.Name(), StatusAborted, "aborted while pending")})
			default:
				dispatch = append(dispatch, dep)
			}
		}
	}
	g.mu.Unlock()

	for _, dep := range dispatch {
		r.ready <- dep
	}
}

// summarize computes the graph's terminal status: SUCCESS iff every sink
// reached SUCCESS or was guard-skipped; a recorded failure anywhere wins
// over a pure abort.
func (e *Executor) summarize(g *Graph, ec *Context, run *graphRun, started time.Time, cause error) *NodeInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	anyFailed := false
	anyAborted := false
	for _, id := range g.order {
		switch g.state[id].status {
		case StatusFailure:
			anyFailed = true
		case StatusAborted:
			anyAborted = true
		}
	}
	sinksOK := true
	for _, id := range g.sinks() {
		st := g.state[id].status
		if st != StatusSuccess && st != StatusSkipped {
			sinksOK = false
		}
	}

	terminal := StatusSuccess
	message := ""
	switch {
	case anyFailed:
		terminal = StatusFailure
		if run.failInfo != nil {
			message = fmt.Sprintf("node %q failed: %s", run.failInfo.NodeID, run.failInfo.Message)
		}
	case anyAborted || ec.Aborted():
		terminal = StatusAborted
		message = "run aborted"
		if cause != nil {
			message = fmt.Sprintf("run aborted: %s", cause)
		}
	case !sinksOK:
		terminal = StatusFailure
		message = "not all terminal nodes succeeded"
	}

	return &NodeInfo{
		NodeID:     g.id,
		Name:       g.name,
		Status:     terminal,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Message:    message,
	}
}
