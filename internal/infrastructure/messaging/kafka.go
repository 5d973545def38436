package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes envelopes to one topic, keyed by aggregate so the
// events of a client stay ordered within a partition
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher for brokers and topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Publish implements Publisher
func (p *KafkaPublisher) Publish(ctx context.Context, env Envelope) error {
	body, err := env.Body()
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(env.Meta.AggregateID),
		Value: body,
		Time:  env.Meta.Time,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(env.Meta.Type)},
			{Key: "correlation_id", Value: []byte(env.Meta.CorrelationID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", env.Meta.Type, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var _ Publisher = (*KafkaPublisher)(nil)
