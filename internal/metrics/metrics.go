// Package metrics exposes the service's prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters exported by the service.
type Metrics struct {
	registry *prometheus.Registry

	VideosAdded        prometheus.Counter
	DuplicateAdds      prometheus.Counter
	EnrichmentFailures prometheus.Counter
	DiscoveryRequests  prometheus.Counter
	ImportsRejected    prometheus.Counter
}

// New builds and registers the service metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		VideosAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "llumina_videos_added_total",
			Help: "Number of videos captured into the library.",
		}),
		DuplicateAdds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "llumina_duplicate_adds_total",
			Help: "Number of add requests that resolved to an already-captured video.",
		}),
		EnrichmentFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "llumina_enrichment_failures_total",
			Help: "Number of add requests that failed during metadata enrichment.",
		}),
		DiscoveryRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "llumina_discovery_requests_total",
			Help: "Number of discovery requests served.",
		}),
		ImportsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "llumina_imports_rejected_total",
			Help: "Number of import payloads rejected as malformed.",
		}),
	}

	registry.MustRegister(
		m.VideosAdded,
		m.DuplicateAdds,
		m.EnrichmentFailures,
		m.DiscoveryRequests,
		m.ImportsRejected,
	)

	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
