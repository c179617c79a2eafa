// metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dyngroups"

// Collector holds the metrics of rule evaluation and reconciliation.
type Collector struct {
	registry *prometheus.Registry

	RuleEvaluations   *prometheus.CounterVec
	MembershipChanges *prometheus.CounterVec
	ReconcileDuration prometheus.Histogram
	ReconcileRuns     *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.RuleEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_evaluations_total",
			Help:      "Rule evaluations by operator and outcome",
		},
		[]string{"operator", "outcome"},
	)

	c.MembershipChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "membership_changes_total",
			Help:      "Applied group membership changes",
		},
		[]string{"action", "status"},
	)

	c.ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconciliation runs",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	c.ReconcileRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Reconciliation runs by mode and result",
		},
		[]string{"mode", "result"},
	)

	c.HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	c.registry.MustRegister(
		c.RuleEvaluations,
		c.MembershipChanges,
		c.ReconcileDuration,
		c.ReconcileRuns,
		c.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveRuleEvaluation counts one rule evaluation.
func (c *Collector) ObserveRuleEvaluation(operator, outcome string) {
	c.RuleEvaluations.WithLabelValues(operator, outcome).Inc()
}

func (c *Collector) ObserveMembershipChange(action, status string) {
	c.MembershipChanges.WithLabelValues(action, status).Inc()
}

func (c *Collector) ObserveReconcile(mode, result string, elapsed time.Duration) {
	c.ReconcileDuration.Observe(elapsed.Seconds())
	c.ReconcileRuns.WithLabelValues(mode, result).Inc()
}

func (c *Collector) ObserveHTTPRequest(method, route, status string) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
