package composer

import "time"

// NodeInfo is the record a node produces about one execution. It is created
// exactly once per executed node per run, recorded in the Context, and must
// be treated as read-only from then on; it survives for the lifetime of the
// context to support post-run introspection.
type NodeInfo struct {
	// NodeID correlates this record with a node in the owning graph.
	NodeID string
	// Name is the node's human-readable name.
	Name string
	// Status is the node's terminal status.
	Status Status
	// StartedAt and FinishedAt bound the node's execution. Both are zero for
	// nodes that never ran (skipped or aborted while pending).
	StartedAt  time.Time
	FinishedAt time.Time
	// Message carries the failure or skip reason, empty on success.
	Message string
	// Detail is a kind-specific diagnostic payload (e.g. contact results for
	// a contact-check task). Downstream tooling interprets it; the engine
	// does not.
	Detail any
}

// Elapsed returns the execution duration, or zero if the node never ran.
func (i *NodeInfo) Elapsed() time.Duration {
	if i.StartedAt.IsZero() || i.FinishedAt.IsZero() {
		return 0
	}
	return i.FinishedAt.Sub(i.StartedAt)
}

// newInfo builds a NodeInfo for a node that never started.
func newInfo(id, name string, status Status, message string) *NodeInfo {
	return &NodeInfo{NodeID: id, Name: name, Status: status, Message: message}
}
