// Package metrics defines the collector contract the executor reports into,
// plus a Prometheus-backed implementation for hosts that scrape and a no-op
// for those that don't.
package metrics

import "time"

// Collector receives node- and run-level execution observations.
// Implementations must be safe for concurrent use: parallel workers report
// node outcomes simultaneously.
type Collector interface {
	// ObserveNode records one node execution with its terminal status.
	ObserveNode(status string, elapsed time.Duration)
	// ObserveRun records one full graph run with its terminal status.
	ObserveRun(status string, elapsed time.Duration)
}

// Nop is a Collector that discards all observations.
type Nop struct{}

func (Nop) ObserveNode(string, time.Duration) {}
func (Nop) ObserveRun(string, time.Duration)  {}
