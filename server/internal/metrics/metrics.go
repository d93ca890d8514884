// Package metrics exposes collector counters in Prometheus text format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the counters the receiver updates per POST.
type Collector struct {
	registry *prometheus.Registry
	payloads *prometheus.CounterVec
	events   *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// New registers the collector counters on a private registry.
func New() *Collector {
	reg := prometheus.NewRegistry()

	payloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "usagestats_collector_payloads_total",
		Help: "Payloads accepted, by wire format",
	}, []string{"format"})

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "usagestats_collector_events_total",
		Help: "Events contained in accepted payloads, by wire format",
	}, []string{"format"})

	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "usagestats_collector_rejected_total",
		Help: "Requests rejected before storage, by reason",
	}, []string{"reason"})

	reg.MustRegister(payloads, events, rejected)

	return &Collector{
		registry: reg,
		payloads: payloads,
		events:   events,
		rejected: rejected,
	}
}

// Handler returns the HTTP handler for /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Accepted records one stored payload holding n events.
func (c *Collector) Accepted(format string, n int) {
	c.payloads.WithLabelValues(format).Inc()
	c.events.WithLabelValues(format).Add(float64(n))
}

// Rejected records one request dropped for reason.
func (c *Collector) Rejected(reason string) {
	c.rejected.WithLabelValues(reason).Inc()
}
