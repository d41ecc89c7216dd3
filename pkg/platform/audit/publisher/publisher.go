// Package publisher emits audit events synchronously or through a bounded
// async buffer.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "intake/pkg/platform/audit"
)

// ErrBufferFull is returned by Emit when the async buffer has no room.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher writes events to a store. In async mode events are queued and
// written by one background goroutine; Close drains the queue.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	buffer    int
	queue     chan audit.Event
	done      chan struct{}
	closeOnce sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables async mode with a queue of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.buffer = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer > 0 {
		p.queue = make(chan audit.Event, p.buffer)
		p.done = make(chan struct{})
		go p.run()
	}
	return p
}

// Emit stamps the event id and timestamp when missing and writes or queues it.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.queue == nil {
		return p.store.Append(ctx, event)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.queue <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

// List reads back one response's events when the store supports it.
func (p *Publisher) List(ctx context.Context, responseID string) ([]audit.Event, error) {
	lister, ok := p.store.(audit.Lister)
	if !ok {
		return nil, errors.New("audit store does not support listing")
	}
	return lister.ListByResponse(ctx, responseID)
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.queue {
		// Detached from the emitter's context; the request may have ended.
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed",
				"action", event.Action,
				"response_id", event.ResponseID,
				"error", err,
			)
		}
	}
}

// Close stops accepting events and waits for queued ones to be written.
// Emit must not be called after Close.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.queue == nil {
			return
		}
		close(p.queue)
		<-p.done
	})
}
