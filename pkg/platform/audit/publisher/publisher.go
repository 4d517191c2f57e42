// Package publisher emits audit events to a store, optionally through a
// bounded asynchronous buffer so request paths never wait on audit storage.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	audit "credchain/pkg/platform/audit"
	"credchain/pkg/platform/audit/worker"
	"credchain/pkg/requestcontext"
)

var (
	ErrBufferFull = errors.New("audit buffer full")
	ErrClosed     = errors.New("audit publisher closed")
)

// Lister is implemented by stores that can answer queries by actor.
type Lister interface {
	ListByActor(ctx context.Context, actorID string) ([]audit.Event, error)
}

type Publisher struct {
	store      audit.Store
	logger     *slog.Logger
	bufferSize int
	onDrop     func()

	mu     sync.RWMutex
	closed bool
	inbox  chan audit.Event
	done   chan struct{}
}

type Option func(*Publisher)

// WithAsyncBuffer makes Emit enqueue events into a buffer of size n that a
// background worker drains. Emit fails with ErrBufferFull when it is full.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.bufferSize = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithDropHook is called for every event that could not be recorded.
func WithDropHook(fn func()) Option {
	return func(p *Publisher) {
		p.onDrop = fn
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		onDrop: func() {},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		w := worker.NewWorker(store, p.inbox, p.logger, p.onDrop)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit enriches event from ctx and records it. Timestamp, request id and
// client metadata are filled in when unset; the category always follows the
// action.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}
	event.Category = audit.AuditEvent(event.Action).Category()

	if p.inbox == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.onDrop()
			return err
		}
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.onDrop()
		return ErrClosed
	}
	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		p.onDrop()
		return ctx.Err()
	default:
		p.onDrop()
		return ErrBufferFull
	}
}

// List returns events for actorID when the underlying store supports it.
func (p *Publisher) List(ctx context.Context, actorID string) ([]audit.Event, error) {
	lister, ok := p.store.(Lister)
	if !ok {
		return nil, errors.New("audit store does not support listing")
	}
	return lister.ListByActor(ctx, actorID)
}

// Close stops accepting events and waits for buffered events to be written.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.inbox != nil {
		close(p.inbox)
	}
	p.mu.Unlock()

	if p.done != nil {
		<-p.done
	}
}
