package messaging

import (
	"context"
	"fmt"

	"github.com/crm/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Publisher delivers envelopes to a broker
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// NopPublisher discards every envelope
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(context.Context, Envelope) error { return nil }

// Close implements Publisher
func (NopPublisher) Close() error { return nil }

// NewPublisher builds the publisher selected by cfg.Driver
func NewPublisher(ctx context.Context, cfg config.MessagingConfig, logger *zap.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return NopPublisher{}, nil
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "amqp":
		return DialAMQP(ctx, cfg.AMQPURL, cfg.AMQPExchange, logger)
	}
	return nil, fmt.Errorf("unsupported messaging driver: %s", cfg.Driver)
}
