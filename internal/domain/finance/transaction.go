package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of money movement
type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeCreditIn   TransactionType = "credit_in"
	TypeCreditOut  TransactionType = "credit_out"
)

// IsValid reports whether t is a known type
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeCreditIn, TypeCreditOut:
		return true
	}
	return false
}

// Direction returns the money flow of the type
func (t TransactionType) Direction() Direction {
	if t == TypeDeposit || t == TypeCreditIn {
		return DirectionIn
	}
	return DirectionOut
}

// usesGateway reports whether real money moves through a provider
func (t TransactionType) usesGateway() bool {
	return t == TypeDeposit || t == TypeWithdrawal
}

// TransactionStatus is the approval state of a transaction
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "pending"
	StatusApproved TransactionStatus = "approved"
	StatusRejected TransactionStatus = "rejected"
)

// Transaction is a deposit, withdrawal or credit adjustment of a client
type Transaction struct {
	shared.BaseAggregateRoot
	EntityID     uuid.UUID
	Type         TransactionType
	Status       TransactionStatus
	Amount       decimal.Decimal
	Currency     string
	GatewayID    *uuid.UUID
	Reference    string
	Comment      string
	IsFTD        bool
	IsFTW        bool
	CreatedBy    *uuid.UUID
	ProcessedBy  *uuid.UUID
	ProcessedAt  *time.Time
	RejectReason string
}

// NewTransactionInput holds the parameters of a new transaction
type NewTransactionInput struct {
	EntityID  uuid.UUID
	Type      TransactionType
	Amount    decimal.Decimal
	Currency  string
	Reference string
	Comment   string
	CreatedBy *uuid.UUID
}

// NewTransaction records a pending transaction for a client. The gateway is
// optional; credit adjustments never use one.
func NewTransaction(in NewTransactionInput, entity *lead.Entity, gateway *Gateway) (*Transaction, error) {
	if entity == nil || entity.ID != in.EntityID {
		return nil, shared.NewDomainError("INVALID_INPUT", "Client is required")
	}
	if !in.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid transaction type %q", in.Type))
	}
	if !in.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Amount must be greater than zero")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Currency must be a 3-letter ISO code")
	}

	t := &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EntityID:          in.EntityID,
		Type:              in.Type,
		Status:            StatusPending,
		Amount:            in.Amount.Round(2),
		Currency:          currency,
		Reference:         strings.TrimSpace(in.Reference),
		Comment:           strings.TrimSpace(in.Comment),
		CreatedBy:         in.CreatedBy,
	}

	if gateway != nil {
		if !in.Type.usesGateway() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Credit adjustments do not use a gateway")
		}
		if err := gateway.Accepts(in.Type.Direction(), currency, t.Amount); err != nil {
			return nil, err
		}
		t.GatewayID = &gateway.ID
	}
	if err := t.checkFunds(entity); err != nil {
		return nil, err
	}

	t.AddDomainEvent(NewTransactionCreatedEvent(t))
	return t, nil
}

// checkFunds enforces the balance and credit ceilings of outgoing types
func (t *Transaction) checkFunds(entity *lead.Entity) error {
	switch t.Type {
	case TypeWithdrawal:
		if t.Amount.GreaterThan(entity.Balance) {
			return shared.NewDomainError("INSUFFICIENT_BALANCE",
				fmt.Sprintf("Withdrawal of %s exceeds balance %s", t.Amount.StringFixed(2), entity.Balance.StringFixed(2)))
		}
	case TypeCreditOut:
		if t.Amount.GreaterThan(entity.Credit) {
			return shared.NewDomainError("INSUFFICIENT_CREDIT",
				fmt.Sprintf("Credit out of %s exceeds available credit %s", t.Amount.StringFixed(2), entity.Credit.StringFixed(2)))
		}
	}
	return nil
}

// IsPending reports whether the transaction awaits a decision
func (t *Transaction) IsPending() bool {
	return t.Status == StatusPending
}

// Approve applies the transaction to the client's balance or credit
func (t *Transaction) Approve(entity *lead.Entity, by uuid.UUID, at time.Time) error {
	if !t.IsPending() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Transaction is already %s", t.Status))
	}
	if entity == nil || entity.ID != t.EntityID {
		return shared.NewDomainError("INVALID_INPUT", "Transaction belongs to another client")
	}
	if err := t.checkFunds(entity); err != nil {
		return err
	}

	switch t.Type {
	case TypeDeposit:
		first, err := entity.Deposit(t.Amount, at)
		if err != nil {
			return err
		}
		t.IsFTD = first
	case TypeWithdrawal:
		first, err := entity.Withdraw(t.Amount, at)
		if err != nil {
			return err
		}
		t.IsFTW = first
	case TypeCreditIn:
		if err := entity.AddCredit(t.Amount); err != nil {
			return err
		}
	case TypeCreditOut:
		if err := entity.RemoveCredit(t.Amount); err != nil {
			return err
		}
	}

	t.Status = StatusApproved
	t.ProcessedBy = &by
	t.ProcessedAt = &at
	t.Touch()
	t.AddDomainEvent(NewTransactionApprovedEvent(t))
	return nil
}

// Reject closes a pending transaction without touching the client
func (t *Transaction) Reject(by uuid.UUID, reason string, at time.Time) error {
	if !t.IsPending() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Transaction is already %s", t.Status))
	}
	t.Status = StatusRejected
	t.RejectReason = strings.TrimSpace(reason)
	t.ProcessedBy = &by
	t.ProcessedAt = &at
	t.Touch()
	t.AddDomainEvent(NewTransactionRejectedEvent(t))
	return nil
}

// Value implements listview.Record
func (t *Transaction) Value(field string) (any, bool) {
	switch field {
	case "id":
		return t.ID.String(), true
	case "entity_id":
		return t.EntityID.String(), true
	case "type":
		return string(t.Type), true
	case "status":
		return string(t.Status), true
	case "amount":
		return t.Amount, true
	case "currency":
		return t.Currency, true
	case "gateway_id":
		if t.GatewayID == nil {
			return nil, true
		}
		return t.GatewayID.String(), true
	case "reference":
		return t.Reference, true
	case "comment":
		return t.Comment, true
	case "is_ftd":
		return t.IsFTD, true
	case "is_ftw":
		return t.IsFTW, true
	case "created_at":
		return t.CreatedAt, true
	case "processed_at":
		return t.ProcessedAt, true
	case "reject_reason":
		return t.RejectReason, true
	}
	return nil, false
}

// TransactionRepository persists transactions
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// FindAll supports filter keys: entity_id, type, status, gateway_id
	FindAll(ctx context.Context, filter shared.Filter) ([]Transaction, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// FindAllRecords loads every transaction for in-memory list views
	FindAllRecords(ctx context.Context) ([]Transaction, error)
	Save(ctx context.Context, transaction *Transaction) error
}
