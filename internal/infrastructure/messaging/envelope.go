package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/shared"
)

// Meta describes an integration event
type Meta struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Time          time.Time `json:"time"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer,omitempty"`
	AggregateID   string    `json:"aggregate_id,omitempty"`
}

// Envelope is the wire format of an integration event
type Envelope struct {
	Meta Meta            `json:"meta"`
	Data json.RawMessage `json:"data"`
}

// NewEnvelope wraps a domain event. The correlation ID falls back to the
// event ID.
func NewEnvelope(event shared.DomainEvent, producer, correlationID string) (Envelope, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}
	id := event.EventID().String()
	if correlationID == "" {
		correlationID = id
	}
	return Envelope{
		Meta: Meta{
			ID:            id,
			Type:          event.EventType(),
			Time:          event.OccurredAt().UTC(),
			CorrelationID: correlationID,
			Producer:      producer,
			AggregateID:   event.AggregateID().String(),
		},
		Data: data,
	}, nil
}

// Body encodes the envelope
func (e Envelope) Body() ([]byte, error) {
	if e.Meta.ID == "" {
		return nil, fmt.Errorf("envelope meta id is required")
	}
	return json.Marshal(e)
}
