// Package outbox relays committed registry events to the event sink.
//
// Events are written to the outbox in the same transaction as the state
// change they describe. The relay publishes undelivered entries in sequence
// order and marks them delivered; an entry is never marked before its
// publish succeeds, so delivery is at-least-once.
package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"policyregistry/internal/registry/models"
	"policyregistry/pkg/platform/circuit"
)

// Source is the store side of the outbox.
type Source interface {
	PendingEvents(ctx context.Context, limit int) ([]models.OutboxEntry, error)
	MarkDelivered(ctx context.Context, sequences []int64, at time.Time) error
}

// Publisher delivers one entry to the sink.
type Publisher interface {
	Publish(ctx context.Context, entry models.OutboxEntry) error
}

// Relay polls the outbox and publishes pending entries.
type Relay struct {
	source    Source
	publisher Publisher
	breaker   *circuit.Breaker
	logger    *slog.Logger
	metrics   *Metrics
	interval  time.Duration
	batchSize int
	wake      <-chan struct{}
	now       func() time.Time
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Relay) { r.breaker = b }
}

// WithWakeup drains the outbox whenever ch receives, in addition to polling.
func WithWakeup(ch <-chan struct{}) Option {
	return func(r *Relay) { r.wake = ch }
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

func NewRelay(source Source, publisher Publisher, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		publisher: publisher,
		logger:    slog.Default(),
		interval:  time.Second,
		batchSize: 100,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.breaker == nil {
		r.breaker = circuit.New("outbox-publisher")
	}
	return r
}

// Run drains the outbox on every tick or wakeup until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "outbox relay started",
		"interval", r.interval,
		"batch_size", r.batchSize,
	)
	for {
		if _, err := r.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.WarnContext(ctx, "outbox drain failed", "error", err)
		}
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "outbox relay stopped")
			return nil
		case <-ticker.C:
		case <-r.wake:
		}
	}
}

// Drain publishes pending entries until the outbox is empty, a publish
// fails, or the breaker is open. While open, one entry is tried per call as
// a probe. It returns the number of entries delivered.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	delivered := 0
	for {
		limit := r.batchSize
		if r.breaker.IsOpen() {
			limit = 1
		}
		entries, err := r.source.PendingEvents(ctx, limit)
		if err != nil {
			return delivered, err
		}
		if r.metrics != nil {
			r.metrics.observeLag(entries, r.now())
		}
		if len(entries) == 0 {
			return delivered, nil
		}

		sent, pubErr := r.publishBatch(ctx, entries)
		if len(sent) > 0 {
			if err := r.source.MarkDelivered(ctx, sent, r.now()); err != nil {
				return delivered, err
			}
			delivered += len(sent)
		}
		if pubErr != nil {
			return delivered, pubErr
		}
		if r.breaker.IsOpen() || len(entries) < limit {
			return delivered, nil
		}
	}
}

// publishBatch stops at the first failure so sequence order is preserved.
func (r *Relay) publishBatch(ctx context.Context, entries []models.OutboxEntry) ([]int64, error) {
	sent := make([]int64, 0, len(entries))
	for _, e := range entries {
		if err := r.publisher.Publish(ctx, e); err != nil {
			_, change := r.breaker.RecordFailure()
			if r.metrics != nil {
				r.metrics.PublishFailures.Inc()
			}
			if change.Opened {
				r.logger.WarnContext(ctx, "outbox publisher circuit opened", "error", err)
				if r.metrics != nil {
					r.metrics.BreakerOpen.Set(1)
				}
			}
			return sent, err
		}
		_, change := r.breaker.RecordSuccess()
		if change.Closed {
			r.logger.InfoContext(ctx, "outbox publisher circuit closed")
			if r.metrics != nil {
				r.metrics.BreakerOpen.Set(0)
			}
		}
		if r.metrics != nil {
			r.metrics.Published.WithLabelValues(string(e.Event.Type)).Inc()
		}
		sent = append(sent, e.Sequence)
	}
	return sent, nil
}
