package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"smartparking/internal/auth/metrics"
)

const (
	defaultBufferSize      = 256
	defaultWorkers         = 2
	defaultObserverTimeout = 5 * time.Second
)

// Bus delivers events to every subscribed observer from a fixed pool of
// workers draining a buffered channel.
type Bus struct {
	mu        sync.RWMutex
	observers []Observer
	closed    bool

	events          chan LoginEvent
	wg              sync.WaitGroup
	workers         int
	observerTimeout time.Duration
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

type Option func(*Bus)

// WithBuffer sets the channel capacity. Publish drops events once it is full.
func WithBuffer(size int) Option {
	return func(b *Bus) {
		if size > 0 {
			b.events = make(chan LoginEvent, size)
		}
	}
}

func WithWorkers(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.workers = n
		}
	}
}

func WithObserverTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.observerTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

// NewBus starts the workers. Call Close to drain and stop them.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		events:          make(chan LoginEvent, defaultBufferSize),
		workers:         defaultWorkers,
		observerTimeout: defaultObserverTimeout,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	for range b.workers {
		b.wg.Add(1)
		go b.run()
	}
	return b
}

// Subscribe registers an observer for subsequent events.
func (b *Bus) Subscribe(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

// Publish enqueues event without blocking. It returns false when the event
// was dropped because the buffer is full or the bus is closed.
func (b *Bus) Publish(event LoginEvent) bool {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}
	select {
	case b.events <- event:
		return true
	default:
		b.logger.Warn("login event buffer full, event dropped",
			"type", event.Type,
			"tenant_id", event.TenantID,
		)
		b.metrics.IncrementEventDropped()
		return false
	}
}

// Close stops accepting events and waits for queued ones to be delivered,
// or for ctx to end.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.events)
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain login events: %w", ctx.Err())
	}
}

func (b *Bus) run() {
	defer b.wg.Done()
	for event := range b.events {
		b.mu.RLock()
		observers := append([]Observer(nil), b.observers...)
		b.mu.RUnlock()

		for _, o := range observers {
			b.deliver(o, event)
		}
	}
}

func (b *Bus) deliver(o Observer, event LoginEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), b.observerTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("login observer panicked",
				"observer", o.Name(),
				"panic", r,
				"type", event.Type,
			)
			b.metrics.IncrementObserverFailure(o.Name())
		}
	}()

	if err := o.Observe(ctx, event); err != nil {
		b.logger.Error("login observer failed",
			"observer", o.Name(),
			"error", err,
			"type", event.Type,
		)
		b.metrics.IncrementObserverFailure(o.Name())
	}
}
