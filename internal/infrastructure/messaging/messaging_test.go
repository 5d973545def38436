package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type convertedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

func newConvertedEvent() *convertedEvent {
	return &convertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("EntityConverted", "Entity", uuid.New()),
		Email:           "lena@example.com",
	}
}

func TestNewEnvelope(t *testing.T) {
	event := newConvertedEvent()

	env, err := NewEnvelope(event, "crm-backend", "")
	require.NoError(t, err)
	assert.Equal(t, event.ID.String(), env.Meta.ID)
	assert.Equal(t, env.Meta.ID, env.Meta.CorrelationID)
	assert.Equal(t, "EntityConverted", env.Meta.Type)
	assert.Equal(t, event.AggID.String(), env.Meta.AggregateID)
	assert.Equal(t, time.UTC, env.Meta.Time.Location())

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "lena@example.com", data["email"])

	env, err = NewEnvelope(event, "crm-backend", "req-42")
	require.NoError(t, err)
	assert.Equal(t, "req-42", env.Meta.CorrelationID)

	body, err := env.Body()
	require.NoError(t, err)
	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "req-42", decoded["meta"]["correlation_id"])

	_, err = Envelope{}.Body()
	assert.Error(t, err)
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	writer := &fakeWriter{}
	p := &KafkaPublisher{writer: writer}
	env, err := NewEnvelope(newConvertedEvent(), "crm-backend", "req-1")
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), env))
	require.Len(t, writer.msgs, 1)
	msg := writer.msgs[0]
	assert.Equal(t, env.Meta.AggregateID, string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, "EntityConverted", string(msg.Headers[0].Value))
	assert.Equal(t, "req-1", string(msg.Headers[1].Value))

	writer.err = errors.New("leader not available")
	assert.ErrorContains(t, p.Publish(context.Background(), env), "leader not available")

	require.NoError(t, p.Close())
	assert.True(t, writer.closed)
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	closed   bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{channel: ch, exchange: "crm.events"}
	env, err := NewEnvelope(newConvertedEvent(), "crm-backend", "")
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), env))
	assert.Equal(t, "crm.events", ch.exchange)
	assert.Equal(t, "EntityConverted", ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, env.Meta.ID, ch.msg.MessageId)
	assert.Equal(t, "crm-backend", ch.msg.AppId)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, env Envelope) error {
	return m.Called(ctx, env).Error(0)
}

func (m *mockPublisher) Close() error { return nil }

func TestForwarder(t *testing.T) {
	pub := new(mockPublisher)
	f := NewForwarder(pub, "crm-backend", time.Second, zap.NewNop(), "EntityConverted")
	assert.Equal(t, []string{"EntityConverted"}, f.EventTypes())

	ctx := logger.WithRequestID(context.Background(), "req-7")
	pub.On("Publish", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.MatchedBy(func(env Envelope) bool {
		return env.Meta.CorrelationID == "req-7" && env.Meta.Producer == "crm-backend"
	})).Return(nil).Once()

	require.NoError(t, f.Handle(ctx, newConvertedEvent()))
	pub.AssertExpectations(t)

	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	assert.EqualError(t, f.Handle(context.Background(), newConvertedEvent()), "broker down")
}

func TestNewPublisher(t *testing.T) {
	p, err := NewPublisher(context.Background(), config.MessagingConfig{Driver: "none"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), Envelope{}))

	p, err = NewPublisher(context.Background(), config.MessagingConfig{Driver: "kafka", KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "crm.events"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())

	_, err = NewPublisher(context.Background(), config.MessagingConfig{Driver: "nats"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported messaging driver")
}

func TestDialTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, dialTimeout(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	d := dialTimeout(ctx)
	assert.LessOrEqual(t, d, 2*time.Second)
	assert.Greater(t, d, time.Second)
}
