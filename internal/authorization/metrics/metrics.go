package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the authorization registry.
type Metrics struct {
	GrantsAuthorized   prometheus.Counter
	GrantsRevoked      prometheus.Counter
	AccessCheckPassed  prometheus.Counter
	AccessCheckFailed  *prometheus.CounterVec
	AuthorizeLatency   prometheus.Histogram
	AttributesPerGrant prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		GrantsAuthorized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "didgate_grants_authorized_total",
			Help: "Total number of grants authorized, including re-authorizations",
		}),
		GrantsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "didgate_grants_revoked_total",
			Help: "Total number of grants revoked",
		}),
		AccessCheckPassed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "didgate_access_checks_passed_total",
			Help: "Total number of access checks that found an active grant",
		}),
		AccessCheckFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "didgate_access_checks_failed_total",
			Help: "Total number of access checks that failed, labeled by reason",
		}, []string{"reason"}),
		AuthorizeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "didgate_authorize_latency_seconds",
			Help:    "Latency of authorize operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		AttributesPerGrant: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "didgate_grant_attributes",
			Help:    "Distribution of attributes per authorized grant",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
		}),
	}
}

func (m *Metrics) IncrementAuthorized(attributes int) {
	m.GrantsAuthorized.Inc()
	m.AttributesPerGrant.Observe(float64(attributes))
}

func (m *Metrics) IncrementRevoked() {
	m.GrantsRevoked.Inc()
}

func (m *Metrics) IncrementCheckPassed() {
	m.AccessCheckPassed.Inc()
}

func (m *Metrics) IncrementCheckFailed(reason string) {
	m.AccessCheckFailed.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveAuthorizeLatency(seconds float64) {
	m.AuthorizeLatency.Observe(seconds)
}
