// Package metrics exposes Prometheus collectors for runs, nodes and queue
// dispatches.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "layergen"

// Metrics groups every collector. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	nodesTotal      *prometheus.CounterVec
	nodeDuration    *prometheus.HistogramVec
	runsTotal       *prometheus.CounterVec
	runsInFlight    prometheus.Gauge
	dispatchesTotal *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		nodesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "executor",
				Name:      "nodes_total",
				Help:      "number of node executions by outcome",
			}, []string{"workflow", "job", "status"}),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "executor",
				Name:      "node_duration_seconds",
				Help:      "wall time of job invocations",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 14),
			}, []string{"workflow", "job"}),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "orchestrator",
				Name:      "runs_total",
				Help:      "number of finished runs by status",
			}, []string{"workflow", "status"}),
		runsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "orchestrator",
				Name:      "runs_in_flight",
				Help:      "number of runs currently executing",
			}),
		dispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "queue",
				Name:      "dispatches_total",
				Help:      "number of consumed dispatch messages by kind and result",
			}, []string{"kind", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.nodesTotal,
		m.nodeDuration,
		m.runsTotal,
		m.runsInFlight,
		m.dispatchesTotal,
	)
	return m
}

// ObserveNode records one node outcome. Skipped nodes have no duration.
func (m *Metrics) ObserveNode(workflow, job, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.nodesTotal.WithLabelValues(workflow, job, status).Inc()
	if d > 0 {
		m.nodeDuration.WithLabelValues(workflow, job).Observe(d.Seconds())
	}
}

// RunStarted increments the in-flight gauge.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsInFlight.Inc()
}

// RunFinished decrements the in-flight gauge and counts the run.
func (m *Metrics) RunFinished(workflow, status string) {
	if m == nil {
		return
	}
	m.runsInFlight.Dec()
	m.runsTotal.WithLabelValues(workflow, status).Inc()
}

// ObserveDispatch counts one consumed queue message.
func (m *Metrics) ObserveDispatch(kind, result string) {
	if m == nil {
		return
	}
	m.dispatchesTotal.WithLabelValues(kind, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
