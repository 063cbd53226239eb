package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements Collector on top of a prometheus registry.
type Prometheus struct {
	nodesTotal   *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
}

// NewPrometheus creates a collector and registers its metrics with the given
// registerer (use prometheus.DefaultRegisterer for the process default).
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		nodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "composer_nodes_total",
				Help: "Total number of node executions by terminal status.",
			},
			[]string{"status"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "composer_node_duration_seconds",
				Help:    "Node execution duration in seconds.",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
			[]string{"status"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "composer_runs_total",
				Help: "Total number of graph runs by terminal status.",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "composer_run_duration_seconds",
				Help:    "Graph run duration in seconds.",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 120, 600, 3600},
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(p.nodesTotal, p.nodeDuration, p.runsTotal, p.runDuration)
	return p
}

func (p *Prometheus) ObserveNode(status string, elapsed time.Duration) {
	p.nodesTotal.WithLabelValues(status).Inc()
	p.nodeDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

func (p *Prometheus) ObserveRun(status string, elapsed time.Duration) {
	p.runsTotal.WithLabelValues(status).Inc()
	p.runDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}
