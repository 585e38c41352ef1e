package util

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus collectors of the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	SubmissionsTotal    *prometheus.CounterVec
	SubmissionsInFlight prometheus.Gauge
	PredictorDuration   *prometheus.HistogramVec
	RiskTiersTotal      *prometheus.CounterVec

	SessionsActive prometheus.Gauge
}

// NewMetrics registers the collectors on reg. Pass a fresh prometheus.Registry
// in tests to avoid duplicate registration.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route"}),

		SubmissionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "attempts_total",
			Help:      "Finished prediction attempts by outcome and error kind.",
		}, []string{"outcome", "kind"}),

		SubmissionsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "in_flight",
			Help:      "Prediction requests currently waiting for the service.",
		}),

		PredictorDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "submission",
			Name:      "duration_seconds",
			Help:      "Time from submit to a terminal state.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),

		RiskTiersTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "advisory",
			Name:      "risk_tiers_total",
			Help:      "Predicted risk tiers returned by the service.",
		}, []string{"tier"}),

		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Form sessions currently held in memory.",
		}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// AttemptStarted marks a prediction request as in flight.
func (m *Metrics) AttemptStarted() {
	if m == nil {
		return
	}
	m.SubmissionsInFlight.Inc()
}

// AttemptFinished records the end of a prediction request. tier is empty
// unless the attempt succeeded.
func (m *Metrics) AttemptFinished(outcome, kind, tier string, d time.Duration) {
	if m == nil {
		return
	}
	m.SubmissionsInFlight.Dec()
	m.SubmissionsTotal.WithLabelValues(outcome, kind).Inc()
	m.PredictorDuration.WithLabelValues(outcome).Observe(d.Seconds())
	if tier != "" {
		m.RiskTiersTotal.WithLabelValues(tier).Inc()
	}
}

// WatchGeoCache exports the lookup cache counters of g on reg.
func WatchGeoCache(namespace string, reg prometheus.Registerer, g *GeoLocator) {
	if g == nil {
		return
	}
	f := promauto.With(reg)
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "geoip",
		Name:      "cache_hits_total",
		Help:      "GeoIP lookups answered from the cache.",
	}, func() float64 {
		hits, _, _ := g.CacheMetrics()
		return float64(hits)
	})
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "geoip",
		Name:      "cache_misses_total",
		Help:      "GeoIP lookups that missed the cache.",
	}, func() float64 {
		_, misses, _ := g.CacheMetrics()
		return float64(misses)
	})
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "geoip",
		Name:      "cache_items",
		Help:      "Locations currently cached.",
	}, func() float64 {
		_, _, size := g.CacheMetrics()
		return float64(size)
	})
}

// MetricsHandler serves the collectors registered on g.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
