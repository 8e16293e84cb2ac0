package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for credential issuance and verification.
type Metrics struct {
	CredentialsIssued     prometheus.Counter
	CredentialsSuperseded prometheus.Counter
	Verifications         *prometheus.CounterVec
	IssueLatency          prometheus.Histogram
}

// New registers and returns credential metrics collectors.
func New() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "didgate_credentials_issued_total",
			Help: "Total number of credentials issued",
		}),
		CredentialsSuperseded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "didgate_credentials_superseded_total",
			Help: "Total number of credentials replaced by a newer issuance for the same subject",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "didgate_credential_verifications_total",
			Help: "Credential verification outcomes, labeled by result",
		}, []string{"result"}),
		IssueLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "didgate_credential_issue_latency_seconds",
			Help:    "Latency of credential issuance in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementIssued(superseded bool) {
	m.CredentialsIssued.Inc()
	if superseded {
		m.CredentialsSuperseded.Inc()
	}
}

func (m *Metrics) IncrementVerification(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.Verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveIssueLatency(seconds float64) {
	m.IssueLatency.Observe(seconds)
}
