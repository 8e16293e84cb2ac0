package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"didgate/pkg/platform/sentinel"
)

// DefaultTimeout bounds a single store call when the caller sets none tighter.
const DefaultTimeout = 5 * time.Second

// Metrics tracks store call latency and outcomes per backend.
type Metrics struct {
	Latency *prometheus.HistogramVec
	Errors  *prometheus.CounterVec
}

// NewMetrics registers docstore collectors with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "didgate_docstore_operation_seconds",
			Help:    "Latency of document store operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"backend", "op"}),
		Errors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "didgate_docstore_errors_total",
			Help: "Document store operations that failed, by outcome",
		}, []string{"backend", "op", "outcome"}),
	}
}

// Bounded decorates a backend with a per-call deadline and normalizes
// deadline expiry and transport failures into sentinel.ErrUnavailable.
type Bounded struct {
	next    Store
	backend string
	timeout time.Duration
	metrics *Metrics
}

// BoundedOption configures Bounded.
type BoundedOption func(*Bounded)

func WithTimeout(d time.Duration) BoundedOption {
	return func(b *Bounded) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func WithMetrics(m *Metrics) BoundedOption {
	return func(b *Bounded) {
		b.metrics = m
	}
}

// NewBounded wraps next. backend labels metrics, e.g. "postgres".
func NewBounded(next Store, backend string, opts ...BoundedOption) *Bounded {
	b := &Bounded{next: next, backend: backend, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bounded) Get(ctx context.Context, key string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	start := time.Now()
	doc, err := b.next.Get(ctx, key)
	err = b.normalize(ctx, err)
	b.observe("get", start, err)
	return doc, err
}

func (b *Bounded) Put(ctx context.Context, doc Document) (Revision, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	start := time.Now()
	rev, err := b.next.Put(ctx, doc)
	err = b.normalize(ctx, err)
	b.observe("put", start, err)
	return rev, err
}

func (b *Bounded) Remove(ctx context.Context, key string, rev Revision) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	start := time.Now()
	err := b.normalize(ctx, b.next.Remove(ctx, key, rev))
	b.observe("remove", start, err)
	return err
}

func (b *Bounded) List(ctx context.Context, prefix string) ([]*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	start := time.Now()
	docs, err := b.next.List(ctx, prefix)
	err = b.normalize(ctx, err)
	b.observe("list", start, err)
	return docs, err
}

func (b *Bounded) normalize(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrConflict) || errors.Is(err, sentinel.ErrUnavailable) {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", b.backend, sentinel.ErrUnavailable, err)
	}
	return err
}

func (b *Bounded) observe(op string, start time.Time, err error) {
	if b.metrics == nil {
		return
	}
	b.metrics.Latency.WithLabelValues(b.backend, op).Observe(time.Since(start).Seconds())
	if err == nil {
		return
	}
	outcome := "error"
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return
	case errors.Is(err, sentinel.ErrConflict):
		outcome = "conflict"
	case errors.Is(err, sentinel.ErrUnavailable):
		outcome = "unavailable"
	}
	b.metrics.Errors.WithLabelValues(b.backend, op, outcome).Inc()
}
