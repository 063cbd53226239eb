package composer

import "errors"

// Construction and validation errors. All are reported synchronously before
// any node is dispatched; a run never begins against an invalid graph.
var (
	// ErrEmptyNodeID is returned when a node is added with an empty id.
	ErrEmptyNodeID = errors.New("composer: node id is empty")
	// ErrDuplicateNode is returned when a node id is already present in the graph.
	ErrDuplicateNode = errors.New("composer: node id already registered")
	// ErrUnknownNode is returned when an edge references a node id that does
	// not exist in the graph.
	ErrUnknownNode = errors.New("composer: unknown node id")
	// ErrSelfEdge is returned when an edge's endpoints are the same node.
	ErrSelfEdge = errors.New("composer: self-referential edge")
	// ErrCycle is returned when the edge set contains a cycle.
	ErrCycle = errors.New("composer: dependency cycle")
	// ErrUnboundPort is returned when a required port has no producible
	// context key bound to it.
	ErrUnboundPort = errors.New("composer: required port unbound")
	// ErrKeyNotFound is returned by Context lookups for absent keys.
	ErrKeyNotFound = errors.New("composer: context key not found")
	// ErrInfoNotFound is returned when no node info was recorded for an id.
	ErrInfoNotFound = errors.New("composer: node info not found")
	// ErrNotCleared is returned when a graph still carries state from a
	// previous run.
	ErrNotCleared = errors.New("composer: graph not cleared since last run")
)
