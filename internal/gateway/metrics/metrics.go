package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the access gateway.
type Metrics struct {
	Reads             *prometheus.CounterVec
	AttributesServed  prometheus.Counter
	AccessRequests    prometheus.Counter
	AuditAppendErrors prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Reads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "didgate_gateway_reads_total",
			Help: "Total number of attribute reads, labeled by outcome",
		}, []string{"result"}),
		AttributesServed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "didgate_gateway_attributes_served_total",
			Help: "Total number of attribute values returned to organizations",
		}),
		AccessRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "didgate_gateway_access_requests_total",
			Help: "Total number of access requests filed by organizations",
		}),
		AuditAppendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "didgate_gateway_audit_append_errors_total",
			Help: "Total number of reads refused because the access trail could not be written",
		}),
	}
}

func (m *Metrics) IncrementRead(result string, attributes int) {
	m.Reads.WithLabelValues(result).Inc()
	m.AttributesServed.Add(float64(attributes))
}

func (m *Metrics) IncrementAccessRequest() {
	m.AccessRequests.Inc()
}

func (m *Metrics) IncrementAuditAppendError() {
	m.AuditAppendErrors.Inc()
}
