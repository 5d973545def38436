package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/crm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned when events are published after Stop
var ErrBusStopped = errors.New("event bus stopped")

const defaultQueueSize = 256

// InMemoryEventBus dispatches domain events in process. Handlers added with
// Subscribe run synchronously inside Publish; handlers added with
// SubscribeAsync run on a background worker between Start and Stop, so slow
// sinks such as brokers never block a request.
type InMemoryEventBus struct {
	syncHandlers  *HandlerRegistry
	asyncHandlers *HandlerRegistry
	logger        *zap.Logger

	mu      sync.RWMutex
	queue   chan queued
	started bool
	stopped bool
	wg      sync.WaitGroup
}

type queued struct {
	ctx   context.Context
	event shared.DomainEvent
}

// Option configures the bus
type Option func(*InMemoryEventBus)

// WithQueueSize sets the async queue capacity
func WithQueueSize(n int) Option {
	return func(b *InMemoryEventBus) {
		if n > 0 {
			b.queue = make(chan queued, n)
		}
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...Option) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &InMemoryEventBus{
		syncHandlers:  NewHandlerRegistry(),
		asyncHandlers: NewHandlerRegistry(),
		logger:        logger.Named("event_bus"),
		queue:         make(chan queued, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish runs synchronous handlers and queues events for async handlers.
// Handler errors are logged, never returned.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		return ErrBusStopped
	}

	for _, event := range events {
		for _, handler := range b.syncHandlers.Handlers(event.EventType()) {
			b.dispatch(ctx, handler, event)
		}
		if !b.started || len(b.asyncHandlers.Handlers(event.EventType())) == 0 {
			continue
		}
		// detach from request cancellation; the worker outlives the request
		item := queued{ctx: context.WithoutCancel(ctx), event: event}
		select {
		case b.queue <- item:
		default:
			b.logger.Warn("async queue full, dropping event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
			)
		}
	}
	return nil
}

// Subscribe registers a synchronous handler. Without explicit types the
// handler's own EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.syncHandlers.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// SubscribeAsync registers a handler run on the background worker
func (b *InMemoryEventBus) SubscribeAsync(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.asyncHandlers.Register(handler, eventTypes...)
	b.logger.Debug("async handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler from both dispatch modes
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.syncHandlers.Unregister(handler)
	b.asyncHandlers.Unregister(handler)
}

// Start launches the async worker
func (b *InMemoryEventBus) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return ErrBusStopped
	}
	if b.started {
		return nil
	}
	b.started = true
	b.wg.Add(1)
	go b.run()
	b.logger.Info("event bus started")
	return nil
}

// Stop drains queued events and waits for the worker, or gives up when ctx
// is done
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	started := b.started
	close(b.queue)
	b.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus stop: %w", ctx.Err())
	}
}

func (b *InMemoryEventBus) run() {
	defer b.wg.Done()
	for item := range b.queue {
		for _, handler := range b.asyncHandlers.Handlers(item.event.EventType()) {
			b.dispatch(item.ctx, handler, item.event)
		}
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := handler.Handle(ctx, event); err != nil {
		b.logger.Error("handler failed to process event",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
	}
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
