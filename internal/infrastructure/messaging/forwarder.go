package messaging

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Forwarder is an event handler that republishes domain events as
// integration events
type Forwarder struct {
	publisher Publisher
	producer  string
	timeout   time.Duration
	types     []string
	logger    *zap.Logger
}

// NewForwarder creates a forwarder for eventTypes; none means every event
func NewForwarder(publisher Publisher, producer string, timeout time.Duration, log *zap.Logger, eventTypes ...string) *Forwarder {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Forwarder{
		publisher: publisher,
		producer:  producer,
		timeout:   timeout,
		types:     eventTypes,
		logger:    logger.Component(log, "forwarder"),
	}
}

// Handle implements shared.EventHandler
func (f *Forwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	env, err := NewEnvelope(event, f.producer, logger.RequestID(ctx))
	if err != nil {
		return err
	}
	pubCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if err := f.publisher.Publish(pubCtx, env); err != nil {
		return err
	}
	f.logger.Debug("event forwarded",
		zap.String("event_type", env.Meta.Type),
		zap.String("event_id", env.Meta.ID),
	)
	return nil
}

// EventTypes implements shared.EventHandler
func (f *Forwarder) EventTypes() []string {
	return f.types
}

var _ shared.EventHandler = (*Forwarder)(nil)
