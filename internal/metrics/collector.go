// Package metrics provides internal Prometheus metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Collector holds the orchestration-layer metrics.
type Collector struct {
	// Routing metrics
	routeDecisions *prometheus.CounterVec
	routeFailures  *prometheus.CounterVec
	routeDuration  *prometheus.HistogramVec

	// Delegation metrics
	delegations *prometheus.CounterVec

	// Session metrics
	sessionsTotal  prometheus.Gauge
	sessionsActive prometheus.Gauge
	historySize    prometheus.Gauge
	messagesTotal  *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a collector and registers its metrics with the given
// registerer. Pass prometheus.DefaultRegisterer in production and a private
// registry in tests.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	factory := func(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
		v := prometheus.NewCounterVec(opts, labels)
		reg.MustRegister(v)
		return v
	}

	c.routeDecisions = factory(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_decisions_total",
		Help:      "Total routing decisions by selection source",
	}, []string{"source", "task_type"})

	c.routeFailures = factory(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_failures_total",
		Help:      "Total routing selection failures",
	}, []string{"task_type"})

	c.routeDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "route_duration_seconds",
		Help:      "End-to-end route call duration in seconds",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
	}, []string{"task_type"})
	reg.MustRegister(c.routeDuration)

	c.delegations = factory(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delegations_total",
		Help:      "Total remote delegations by outcome",
	}, []string{"outcome"})

	c.sessionsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Current number of conversation sessions",
	})
	reg.MustRegister(c.sessionsTotal)

	c.sessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Current number of active conversation sessions",
	})
	reg.MustRegister(c.sessionsActive)

	c.historySize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "history_entries",
		Help:      "Total history entries across all sessions",
	})
	reg.MustRegister(c.historySize)

	c.messagesTotal = factory(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_total",
		Help:      "Total processed conversation messages by role",
	}, []string{"role"})

	return c
}

// RecordRouteDecision records a routing selection and which selection stage
// produced it (rule, local, discovery).
func (c *Collector) RecordRouteDecision(source, taskType string) {
	if c == nil {
		return
	}
	c.routeDecisions.WithLabelValues(source, taskType).Inc()
}

// RecordRouteFailure records a selection failure.
func (c *Collector) RecordRouteFailure(taskType string) {
	if c == nil {
		return
	}
	c.routeFailures.WithLabelValues(taskType).Inc()
}

// ObserveRouteDuration records the duration of a route call.
func (c *Collector) ObserveRouteDuration(taskType string, seconds float64) {
	if c == nil {
		return
	}
	c.routeDuration.WithLabelValues(taskType).Observe(seconds)
}

// RecordDelegation records a remote delegation outcome (delivered, failed).
func (c *Collector) RecordDelegation(outcome string) {
	if c == nil {
		return
	}
	c.delegations.WithLabelValues(outcome).Inc()
}

// RecordMessage records a processed conversation message.
func (c *Collector) RecordMessage(role string) {
	if c == nil {
		return
	}
	c.messagesTotal.WithLabelValues(role).Inc()
}

// SetSessionStats updates the session gauges.
func (c *Collector) SetSessionStats(total, active, historyEntries int) {
	if c == nil {
		return
	}
	c.sessionsTotal.Set(float64(total))
	c.sessionsActive.Set(float64(active))
	c.historySize.Set(float64(historyEntries))
}
