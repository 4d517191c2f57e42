// Package outbox relays audit events written to the transactional outbox
// onto an event stream.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Entry is one outbox row.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// Source hands out unpublished entries. Claim passes up to limit entries to
// fn and marks them published only if fn succeeds; concurrent relays never
// receive the same entry.
type Source interface {
	Claim(ctx context.Context, limit int, fn func(ctx context.Context, entries []Entry) error) (int, error)
}

// Producer writes entries to the stream, returning once all are acknowledged.
type Producer interface {
	Publish(ctx context.Context, entries []Entry) error
}

type Relay struct {
	source    Source
	producer  Producer
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	onRelay   func(n int)
}

type Option func(*Relay)

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

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithRelayHook is called with the number of entries relayed by each batch.
func WithRelayHook(fn func(n int)) Option {
	return func(r *Relay) {
		r.onRelay = fn
	}
}

func NewRelay(source Source, producer Producer, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		producer:  producer,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
		onRelay:   func(int) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays batches until ctx is cancelled. Full batches are followed
// immediately by another attempt; otherwise the relay waits one interval.
func (r *Relay) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		n, err := r.RelayOnce(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.WarnContext(ctx, "audit outbox relay failed", "error", err)
		}
		next := r.interval
		if err == nil && n == r.batchSize {
			next = 0
		}
		timer.Reset(next)
	}
}

// RelayOnce publishes at most one batch and returns how many entries it relayed.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	n, err := r.source.Claim(ctx, r.batchSize, r.producer.Publish)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.onRelay(n)
		r.logger.DebugContext(ctx, "relayed audit outbox entries", "count", n)
	}
	return n, nil
}
