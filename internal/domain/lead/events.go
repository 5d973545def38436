package lead

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeEntity is the aggregate type of leads and clients
const AggregateTypeEntity = "Entity"

// Event type constants
const (
	EventTypeEntityCreated        = "EntityCreated"
	EventTypeEntityUpdated        = "EntityUpdated"
	EventTypeEntityStatusChanged  = "EntityStatusChanged"
	EventTypeEntityConverted      = "EntityConverted"
	EventTypeEntityAssigned       = "EntityAssigned"
	EventTypeEntityBalanceChanged = "EntityBalanceChanged"
	EventTypeEntityDeleted        = "EntityDeleted"
)

// EntityCreatedEvent is published when a lead is created
type EntityCreatedEvent struct {
	shared.BaseDomainEvent
	EntityID uuid.UUID  `json:"entity_id"`
	Name     string     `json:"name"`
	Email    string     `json:"email,omitempty"`
	Campaign string     `json:"campaign,omitempty"`
	Source   string     `json:"source,omitempty"`
	OwnerID  *uuid.UUID `json:"owner_id,omitempty"`
}

func NewEntityCreatedEvent(e *Entity) *EntityCreatedEvent {
	return &EntityCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntityCreated, AggregateTypeEntity, e.ID),
		EntityID:        e.ID,
		Name:            e.FullName(),
		Email:           e.Email,
		Campaign:        e.Campaign,
		Source:          e.Source,
		OwnerID:         e.OwnerID,
	}
}

// EntityUpdatedEvent is published when a single field is edited
type EntityUpdatedEvent struct {
	shared.BaseDomainEvent
	EntityID uuid.UUID `json:"entity_id"`
	Field    string    `json:"field"`
	OldValue string    `json:"old_value"`
	NewValue string    `json:"new_value"`
}

func NewEntityUpdatedEvent(e *Entity, field, oldValue, newValue string) *EntityUpdatedEvent {
	return &EntityUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntityUpdated, AggregateTypeEntity, e.ID),
		EntityID:        e.ID,
		Field:           field,
		OldValue:        oldValue,
		NewValue:        newValue,
	}
}

// EntityStatusChangedEvent is published when the sales status moves
type EntityStatusChangedEvent struct {
	shared.BaseDomainEvent
	EntityID  uuid.UUID `json:"entity_id"`
	OldStatus Status    `json:"old_status"`
	NewStatus Status    `json:"new_status"`
}

func NewEntityStatusChangedEvent(e *Entity, oldStatus, newStatus Status) *EntityStatusChangedEvent {
	return &EntityStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntityStatusChanged, AggregateTypeEntity, e.ID),
		EntityID:        e.ID,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// EntityConvertedEvent is published when a lead becomes a client
type EntityConvertedEvent struct {
	shared.BaseDomainEvent
	EntityID uuid.UUID  `json:"entity_id"`
	OwnerID  *uuid.UUID `json:"owner_id,omitempty"`
	Campaign string     `json:"campaign,omitempty"`
	FTD      bool       `json:"ftd"`
}

func NewEntityConvertedEvent(e *Entity) *EntityConvertedEvent {
	return &EntityConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntityConverted, AggregateTypeEntity, e.ID),
		EntityID:        e.ID,
		OwnerID:         e.OwnerID,
		Campaign:        e.Campaign,
		FTD:             e.FTD,
	}
}

// EntityAssignedEvent is published when the owner changes
type EntityAssignedEvent struct {
	shared.BaseDomainEvent
	EntityID        uuid.UUID  `json:"entity_id"`
	PreviousOwnerID *uuid.UUID `json:"previous_owner_id,omitempty"`
	OwnerID         uuid.UUID  `json:"owner_id"`
}

func NewEntityAssignedEvent(e *Entity, previous *uuid.UUID, owner uuid.UUID) *EntityAssignedEvent {
	return &EntityAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntityAssigned, AggregateTypeEntity, e.ID),
		EntityID:        e.ID,
		PreviousOwnerID: previous,
		OwnerID:         owner,
	}
}

// EntityBalanceChangedEvent is published when the balance moves
type EntityBalanceChangedEvent struct {
	shared.BaseDomainEvent
	EntityID   uuid.UUID       `json:"entity_id"`
	OldBalance decimal.Decimal `json:"old_balance"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Change     decimal.Decimal `json:"change"`
	Reason     string          `json:"reason"`
}

func NewEntityBalanceChangedEvent(e *Entity, oldBalance, newBalance decimal.Decimal, reason string) *EntityBalanceChangedEvent {
	return &EntityBalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntityBalanceChanged, AggregateTypeEntity, e.ID),
		EntityID:        e.ID,
		OldBalance:      oldBalance,
		NewBalance:      newBalance,
		Change:          newBalance.Sub(oldBalance),
		Reason:          reason,
	}
}

// EntityDeletedEvent is published when a contact is removed
type EntityDeletedEvent struct {
	shared.BaseDomainEvent
	EntityID uuid.UUID `json:"entity_id"`
	Email    string    `json:"email,omitempty"`
}

func NewEntityDeletedEvent(e *Entity) *EntityDeletedEvent {
	return &EntityDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntityDeleted, AggregateTypeEntity, e.ID),
		EntityID:        e.ID,
		Email:           e.Email,
	}
}
