package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	dErrors "didgate/pkg/domain-errors"
	audit "didgate/pkg/platform/audit"
	"didgate/pkg/platform/audit/metrics"
)

// Publisher captures structured audit events and hands them to a sink. With
// an async buffer, Emit never blocks on the sink.
type Publisher struct {
	sink    audit.Sink
	events  chan queued
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *metrics.Metrics
	async   bool

	// closeMu guards events against a send after Close; Emit never blocks
	// while holding the read lock.
	closeMu sync.RWMutex
	closed  bool
}

// ErrClosed is returned by Emit once Close has been called.
var ErrClosed = errors.New("audit publisher closed")

type queued struct {
	ctx   context.Context
	event audit.Event
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan queued, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(sink audit.Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

// processEvents runs in a goroutine and persists events from the channel.
func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for q := range p.events {
		if p.metrics != nil {
			p.metrics.QueueDepth.Set(float64(len(p.events)))
		}
		p.persist(q.ctx, q.event)
	}
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	start := time.Now()
	err := p.sink.Append(ctx, event)
	if p.metrics != nil {
		p.metrics.PersistDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			p.metrics.PersistFailures.Inc()
		}
	}
	if err != nil && p.logger != nil {
		p.logger.Error("failed to persist audit event",
			"error", err,
			"action", event.Action,
			"did", event.Subject,
		)
	}
	return err
}

// Close shuts down the async publisher and waits for pending events to
// drain. Later Emit calls return ErrClosed. Close is idempotent.
func (p *Publisher) Close() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	if p.async {
		close(p.events)
	}
	p.closeMu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) Emit(ctx context.Context, base audit.Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}

	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		if p.metrics != nil {
			p.metrics.EventsDropped.Inc()
		}
		if p.logger != nil {
			p.logger.Warn("audit publisher closed, event dropped",
				"action", base.Action,
				"did", base.Subject,
			)
		}
		return ErrClosed
	}
	if !p.async {
		return p.persist(ctx, base)
	}
	// Detach from request cancellation; the event outlives the request.
	select {
	case p.events <- queued{ctx: context.WithoutCancel(ctx), event: base}:
		if p.metrics != nil {
			p.metrics.EventsEnqueued.Inc()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if p.metrics != nil {
			p.metrics.EventsDropped.Inc()
		}
		if p.logger != nil {
			p.logger.Warn("audit buffer full, event dropped",
				"action", base.Action,
				"did", base.Subject,
			)
		}
		return dErrors.New(dErrors.CodeInternal, "audit buffer full")
	}
}

// Tee fans an event out to every sink. All sinks are attempted; failures are joined.
func Tee(sinks ...audit.Sink) audit.Sink {
	return tee(sinks)
}

type tee []audit.Sink

func (t tee) Append(ctx context.Context, event audit.Event) error {
	var errs []error
	for _, s := range t {
		if err := s.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
