// Package metrics implements ports.Metrics with Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup results recorded by CacheLookup.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
)

// Metrics tracks cache and loader counters.
//
// All metrics use the "flipfusion_" prefix. Methods handle a nil receiver,
// so a nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	// CacheLookups counts interception lookups by result.
	// Labels: result=[hit, miss, error]
	CacheLookups *prometheus.CounterVec

	// FetchAttempts counts origin requests by result.
	// Labels: result=[success, failure]
	FetchAttempts *prometheus.CounterVec

	// AssetsCommitted counts entries written to the cache.
	AssetsCommitted prometheus.Counter

	// LoadPasses counts load passes by result.
	// Labels: result=[success, failure]
	LoadPasses *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flipfusion_cache_lookups_total",
				Help: "Total intercepted requests by cache lookup result",
			},
			[]string{"result"},
		),
		FetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flipfusion_fetch_attempts_total",
				Help: "Total origin fetch attempts by result",
			},
			[]string{"result"},
		),
		AssetsCommitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "flipfusion_assets_committed_total",
				Help: "Total assets committed to the cache",
			},
		),
		LoadPasses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flipfusion_load_passes_total",
				Help: "Total load passes by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.CacheLookups,
		m.FetchAttempts,
		m.AssetsCommitted,
		m.LoadPasses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CacheLookup records an interception lookup result.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// FetchAttempt records one origin request.
func (m *Metrics) FetchAttempt(ok bool) {
	if m == nil {
		return
	}
	m.FetchAttempts.WithLabelValues(outcome(ok)).Inc()
}

// AssetCommitted records an entry written to the cache.
func (m *Metrics) AssetCommitted() {
	if m == nil {
		return
	}
	m.AssetsCommitted.Inc()
}

// LoadPass records the outcome of one load pass.
func (m *Metrics) LoadPass(ok bool) {
	if m == nil {
		return
	}
	m.LoadPasses.WithLabelValues(outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
