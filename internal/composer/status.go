package composer

import "fmt"

// Status is the execution state of a node within a run.
type Status int32

const (
	// StatusPending indicates the node's dependencies are not all resolved.
	StatusPending Status = iota
	// StatusRunning indicates the node has been dispatched to a worker.
	StatusRunning
	// StatusSuccess indicates the node completed and committed its outputs.
	StatusSuccess
	// StatusFailure indicates the node's computation failed.
	StatusFailure
	// StatusSkipped indicates a conditional guard ruled the node out; it
	// never ran and never touched the context.
	StatusSkipped
	// StatusAborted indicates the run was unwound before the node could
	// complete (or start).
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusRunning:
		return "RUNNING"
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailure:
		return "FAILURE"
	case StatusSkipped:
		return "SKIPPED"
	case StatusAborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusSkipped, StatusAborted:
		return true
	}
	return false
}

// Guard is the predicate on a conditional edge. It receives the
// predecessor's terminal status and reports whether the successor may
// become ready. A nil Guard denotes an unconditional edge.
type Guard func(Status) bool

// OnSuccess gates the successor on the predecessor reaching StatusSuccess.
func OnSuccess(s Status) bool { return s == StatusSuccess }

// OnFailure gates the successor on the predecessor reaching StatusFailure.
func OnFailure(s Status) bool { return s == StatusFailure }
