// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linkmark"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	allocations        *prometheus.CounterVec
	allocationAttempts *prometheus.HistogramVec
	renderSeconds      prometheus.Histogram
	redirects          *prometheus.CounterVec
	analyticsEvents    *prometheus.CounterVec
	webhookEvents      *prometheus.CounterVec
}

// New creates the collectors and registers them with a fresh registry,
// together with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_allocations_total",
			Help:      "Code allocations by namespace and outcome.",
		}, []string{"namespace", "outcome"}),
		allocationAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "code_allocation_attempts",
			Help:      "Lookups performed per allocation.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}, []string{"namespace"}),
		renderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "markdown_render_seconds",
			Help:      "Markdown conversion time from parse to sanitize.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Redirect resolutions by surface and terminal state.",
		}, []string{"surface", "state"}),
		analyticsEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_events_total",
			Help:      "Analytics events by stage and asset kind.",
		}, []string{"stage", "asset"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_webhook_events_total",
			Help:      "Billing webhook events by type and result.",
		}, []string{"type", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.allocations,
		m.allocationAttempts,
		m.renderSeconds,
		m.redirects,
		m.analyticsEvents,
		m.webhookEvents,
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAllocation(ns, outcome string, attempts int) {
	m.allocations.WithLabelValues(ns, outcome).Inc()

	if attempts > 0 {
		m.allocationAttempts.WithLabelValues(ns).Observe(float64(attempts))
	}
}

func (m *Metrics) ObserveRender(d time.Duration) {
	m.renderSeconds.Observe(d.Seconds())
}

func (m *Metrics) ObserveRedirect(surface, state string) {
	m.redirects.WithLabelValues(surface, state).Inc()
}

func (m *Metrics) ObserveAnalytics(stage, asset string) {
	m.analyticsEvents.WithLabelValues(stage, asset).Inc()
}

func (m *Metrics) ObserveWebhook(eventType string, handled bool) {
	m.webhookEvents.WithLabelValues(eventType, strconv.FormatBool(handled)).Inc()
}
