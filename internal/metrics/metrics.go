// Package metrics exposes Prometheus metrics for the billing server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	ToolCallsTotal   *prometheus.CounterVec
	ToolCallDuration *prometheus.HistogramVec

	RecurringRunsTotal     *prometheus.CounterVec
	RecurringServicesTotal *prometheus.CounterVec
}

// New creates and registers all metrics on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "probill_tool_calls_total",
				Help: "Total number of MCP tool calls by result code",
			},
			[]string{"tool", "code"},
		),
		ToolCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "probill_tool_call_duration_seconds",
				Help:    "MCP tool call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		RecurringRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "probill_recurring_runs_total",
				Help: "Total number of scheduled recurring billing runs",
			},
			[]string{"status"},
		),
		RecurringServicesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "probill_recurring_services_total",
				Help: "Recurring services processed by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		m.ToolCallsTotal,
		m.ToolCallDuration,
		m.RecurringRunsTotal,
		m.RecurringServicesTotal,
	)
	return m
}

// ObserveToolCall records one tool call. code is "OK" or an error code.
func (m *Metrics) ObserveToolCall(tool, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ToolCallsTotal.WithLabelValues(tool, code).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveRecurringRun records the outcome of a GenerateDue run.
func (m *Metrics) ObserveRecurringRun(generated, skipped, failed int, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.RecurringRunsTotal.WithLabelValues(status).Inc()
	m.RecurringServicesTotal.WithLabelValues("generated").Add(float64(generated))
	m.RecurringServicesTotal.WithLabelValues("skipped").Add(float64(skipped))
	m.RecurringServicesTotal.WithLabelValues("failed").Add(float64(failed))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
