package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache lookup result labels.
const (
	CacheHit       = "hit"
	CacheMiss      = "miss"
	CacheSynthetic = "synthetic"
)

// Metrics holds the Prometheus collectors for the conditions engine.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec   // labels: product, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: product
	CacheLookups     *prometheus.CounterVec   // labels: kind={conditions,tides}, result={hit,miss,synthetic}
	SnapshotsBuilt   prometheus.Counter
	WebsocketClients prometheus.Gauge
}

// NewMetrics creates the engine metrics and registers them with the
// given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newCollectors()
	reg.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.CacheLookups,
		m.SnapshotsBuilt,
		m.WebsocketClients,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so parallel tests
// do not trip duplicate registration panics.
func NewMetricsForTesting() *Metrics {
	return newCollectors()
}

func newCollectors() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beach_report",
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by product and outcome.",
		}, []string{"product", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "beach_report",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"product"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beach_report",
			Name:      "cache_lookups_total",
			Help:      "Conditions cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		SnapshotsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beach_report",
			Name:      "snapshots_built_total",
			Help:      "Total conditions snapshots assembled from upstream data.",
		}),
		WebsocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "beach_report",
			Name:      "websocket_clients",
			Help:      "Currently connected live-update clients.",
		}),
	}
}

// ObserveUpstreamRequest records one upstream API call.
func (m *Metrics) ObserveUpstreamRequest(product string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.UpstreamRequests.WithLabelValues(product, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(product).Observe(elapsed.Seconds())
}

// ObserveCacheLookup records one cache lookup outcome.
func (m *Metrics) ObserveCacheLookup(kind, result string) {
	m.CacheLookups.WithLabelValues(kind, result).Inc()
}
