package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Entity", uuid.New()),
		Data:            "test data",
	}
}

type testHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
	panics     bool
	block      chan struct{}
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panics {
		panic("handler exploded")
	}
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestPublish_Sync(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	typed := newTestHandler("EntityConverted")
	wildcard := newTestHandler()
	other := newTestHandler("PositionClosed")
	bus.Subscribe(typed)
	bus.Subscribe(wildcard)
	bus.Subscribe(other)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("EntityConverted"), newTestEvent("EntityConverted")))

	assert.Equal(t, 2, typed.count())
	assert.Equal(t, 2, wildcard.count())
	assert.Equal(t, 0, other.count())
}

func TestPublish_HandlerFailuresAreIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler("E")
	failing.err = errors.New("handler error")
	panicking := newTestHandler("E")
	panicking.panics = true
	healthy := newTestHandler("E")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("E")))

	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, 1, logs.FilterMessage("handler failed to process event").Len())
	assert.Equal(t, 1, logs.FilterMessage("handler panicked").Len())
}

func TestUnsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := newTestHandler("E")
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), newTestEvent("E"))
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), newTestEvent("E"))

	assert.Equal(t, 1, handler.count())
}

func TestAsyncHandlers_DrainedOnStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("E")
	handler.block = make(chan struct{})
	bus.SubscribeAsync(handler)

	require.NoError(t, bus.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	for range 5 {
		require.NoError(t, bus.Publish(ctx, newTestEvent("E")))
	}
	cancel()
	assert.Equal(t, 0, handler.count(), "async handlers must not run inside Publish")

	close(handler.block)
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, bus.Stop(stopCtx))

	assert.Equal(t, 5, handler.count())
	assert.ErrorIs(t, bus.Publish(context.Background(), newTestEvent("E")), ErrBusStopped)
	assert.NoError(t, bus.Stop(stopCtx))
}

func TestAsyncHandlers_QueueFullDropsAndWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	bus := NewInMemoryEventBus(zap.New(core), WithQueueSize(1))
	handler := newTestHandler("E")
	handler.block = make(chan struct{})
	bus.SubscribeAsync(handler)
	require.NoError(t, bus.Start(context.Background()))

	for range 5 {
		require.NoError(t, bus.Publish(context.Background(), newTestEvent("E")))
	}
	close(handler.block)
	require.NoError(t, bus.Stop(context.Background()))

	dropped := logs.FilterMessage("async queue full, dropping event").Len()
	assert.GreaterOrEqual(t, dropped, 3)
	assert.Equal(t, 5, handler.count()+dropped)
}

func TestStop_Timeout(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("E")
	handler.block = make(chan struct{})
	bus.SubscribeAsync(handler)
	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("E")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Stop(ctx), context.DeadlineExceeded)

	close(handler.block)
	require.Eventually(t, func() bool { return handler.count() == 1 }, time.Second, 5*time.Millisecond)
	// let the worker and the waiter goroutine finish before goleak checks
	bus.wg.Wait()
	time.Sleep(10 * time.Millisecond)
}

func TestHandlerRegistry_Len(t *testing.T) {
	r := NewHandlerRegistry()
	h1, h2 := newTestHandler(), newTestHandler()
	r.Register(h1, "A", "B")
	r.Register(h2)
	assert.Equal(t, 2, r.Len())
	assert.Len(t, r.Handlers("A"), 2)

	r.Unregister(h1)
	assert.Equal(t, 1, r.Len())
	assert.Len(t, r.Handlers("B"), 1)
}
