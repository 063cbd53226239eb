package composer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Context is the shared store for one pipeline run: a mapping from context
// keys to opaque values, an append-only audit trail of node infos, and a
// single run-wide abort flag.
//
// The Context is the only structure mutated by more than one node. All
// operations are safe under concurrent invocation from parallel branches of
// the same graph; per-key updates are atomic, so a Get never observes a
// half-written value.
//
// Views created for nested sub-graphs share the underlying storage, audit
// trail, and abort flag; they differ only in key remapping and node-id
// namespace.
type Context struct {
	runID  string
	prefix string
	remap  map[string]string
	shared *contextShared
}

type contextShared struct {
	mu   sync.RWMutex
	data map[string]any

	infoMu    sync.RWMutex
	infos     map[string]*NodeInfo
	infoOrder []string

	aborted atomic.Bool
}

// NewContext returns an empty context with a fresh run id.
func NewContext() *Context {
	return &Context{
		runID: uuid.New().String(),
		shared: &contextShared{
			data:  make(map[string]any),
			infos: make(map[string]*NodeInfo),
		},
	}
}

// RunID returns the unique identifier of this run.
func (c *Context) RunID() string { return c.runID }

// resolve translates a key through the view's remapping table.
func (c *Context) resolve(key string) string {
	if c.remap != nil {
		if outer, ok := c.remap[key]; ok {
			return outer
		}
	}
	return key
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (c *Context) Get(key string) (any, error) {
	key = c.resolve(key)
	c.shared.mu.RLock()
	defer c.shared.mu.RUnlock()
	v, ok := c.shared.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return v, nil
}

// Has reports whether key holds a value.
func (c *Context) Has(key string) bool {
	key = c.resolve(key)
	c.shared.mu.RLock()
	defer c.shared.mu.RUnlock()
	_, ok := c.shared.data[key]
	return ok
}

// Set stores value under key, replacing any previous value.
func (c *Context) Set(key string, value any) {
	key = c.resolve(key)
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	c.shared.data[key] = value
}

// Keys returns the names under which this context currently resolves values.
// A view reports stored keys in its own namespace: a stored key targeted by
// the remap table appears under its inner name, and a stored key whose own
// name the table redirects elsewhere is not reported under that name. The
// result is therefore usable as the seed set when validating a nested graph
// against the view. Order is unspecified.
func (c *Context) Keys() []string {
	c.shared.mu.RLock()
	defer c.shared.mu.RUnlock()
	keys := make([]string, 0, len(c.shared.data))
	for k := range c.shared.data {
		if c.remap == nil {
			keys = append(keys, k)
			continue
		}
		for inner, outer := range c.remap {
			if outer == k {
				keys = append(keys, inner)
			}
		}
		if _, redirected := c.remap[k]; !redirected {
			keys = append(keys, k)
		}
	}
	return keys
}

// Abort sets the run-wide abort flag. It is idempotent and monotonic: once
// set, the flag cannot be cleared within the run. After Abort, no node may
// begin new work; nodes already running may finish but must not commit
// success.
func (c *Context) Abort() {
	c.shared.aborted.Store(true)
}

// Aborted reports whether the run has been aborted.
func (c *Context) Aborted() bool {
	return c.shared.aborted.Load()
}

// qualify namespaces a node id with the view's prefix so that nodes of
// nested sub-graphs never collide in the shared audit trail.
func (c *Context) qualify(nodeID string) string {
	if c.prefix == "" {
		return nodeID
	}
	return c.prefix + "/" + nodeID
}

// RecordInfo appends the info for a node to the audit trail. Recording the
// same node id twice within a run indicates an executor bug; the first
// record wins so the trail stays append-only.
func (c *Context) RecordInfo(nodeID string, info *NodeInfo) {
	id := c.qualify(nodeID)
	c.shared.infoMu.Lock()
	defer c.shared.infoMu.Unlock()
	if _, exists := c.shared.infos[id]; exists {
		return
	}
	c.shared.infos[id] = info
	c.shared.infoOrder = append(c.shared.infoOrder, id)
}

// Info returns the recorded info for a node id, or ErrInfoNotFound.
func (c *Context) Info(nodeID string) (*NodeInfo, error) {
	id := c.qualify(nodeID)
	c.shared.infoMu.RLock()
	defer c.shared.infoMu.RUnlock()
	info, ok := c.shared.infos[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInfoNotFound, id)
	}
	return info, nil
}

// InfoIDs returns every recorded node id in recording order, qualified with
// their sub-graph prefixes.
func (c *Context) InfoIDs() []string {
	c.shared.infoMu.RLock()
	defer c.shared.infoMu.RUnlock()
	out := make([]string, len(c.shared.infoOrder))
	copy(out, c.shared.infoOrder)
	return out
}

// View derives a context for a nested sub-graph. The view shares storage,
// audit trail, and abort flag with its parent; remap translates the inner
// graph's keys to outer keys (inner keys absent from the table pass through
// unchanged), and prefix namespaces the inner nodes' audit entries.
func (c *Context) View(prefix string, remap map[string]string) *Context {
	merged := remap
	if c.remap != nil {
		merged = make(map[string]string, len(remap)+len(c.remap))
		for k, v := range remap {
			// Chain through the parent view's remapping.
			if outer, ok := c.remap[v]; ok {
				v = outer
			}
			merged[k] = v
		}
		for k, v := range c.remap {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
	}
	return &Context{
		runID:  c.runID,
		prefix: c.qualify(prefix),
		remap:  merged,
		shared: c.shared,
	}
}
