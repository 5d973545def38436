package finance

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateTypeTransaction = "Transaction"

const (
	EventTypeTransactionCreated  = "TransactionCreated"
	EventTypeTransactionApproved = "TransactionApproved"
	EventTypeTransactionRejected = "TransactionRejected"
)

// TransactionEvent carries the state of a transaction at a lifecycle step
type TransactionEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID         `json:"transaction_id"`
	EntityID      uuid.UUID         `json:"entity_id"`
	Type          TransactionType   `json:"type"`
	Status        TransactionStatus `json:"status"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	IsFTD         bool              `json:"is_ftd"`
	IsFTW         bool              `json:"is_ftw"`
	Reason        string            `json:"reason,omitempty"`
}

func newTransactionEvent(eventType string, t *Transaction) *TransactionEvent {
	return &TransactionEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeTransaction, t.ID),
		TransactionID:   t.ID,
		EntityID:        t.EntityID,
		Type:            t.Type,
		Status:          t.Status,
		Amount:          t.Amount,
		Currency:        t.Currency,
		IsFTD:           t.IsFTD,
		IsFTW:           t.IsFTW,
		Reason:          t.RejectReason,
	}
}

func NewTransactionCreatedEvent(t *Transaction) *TransactionEvent {
	return newTransactionEvent(EventTypeTransactionCreated, t)
}

func NewTransactionApprovedEvent(t *Transaction) *TransactionEvent {
	return newTransactionEvent(EventTypeTransactionApproved, t)
}

func NewTransactionRejectedEvent(t *Transaction) *TransactionEvent {
	return newTransactionEvent(EventTypeTransactionRejected, t)
}
