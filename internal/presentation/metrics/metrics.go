package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for presentation building and verification.
type Metrics struct {
	PresentationsBuilt  prometheus.Counter
	AttributesDisclosed prometheus.Histogram
	Verifications       *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		PresentationsBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Name: "didgate_presentations_built_total",
			Help: "Total number of presentations built",
		}),
		AttributesDisclosed: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "didgate_presentation_attributes",
			Help:    "Distribution of attributes revealed per presentation",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "didgate_presentation_verifications_total",
			Help: "Presentation verification outcomes, labeled by result and failed check",
		}, []string{"result", "check"}),
	}
}

func (m *Metrics) IncrementBuilt(attributes int) {
	m.PresentationsBuilt.Inc()
	m.AttributesDisclosed.Observe(float64(attributes))
}

func (m *Metrics) IncrementVerification(valid bool, failedCheck string) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.Verifications.WithLabelValues(result, failedCheck).Inc()
}
