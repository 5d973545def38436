package finance

import (
	"time"

	"github.com/crm/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransactionInput contains the data for a new transaction record
type CreateTransactionInput struct {
	EntityID  uuid.UUID
	Type      string
	Amount    decimal.Decimal
	Currency  string
	GatewayID *uuid.UUID
	Reference string
	Comment   string
	CreatedBy *uuid.UUID
	// Approve processes the record right away instead of leaving it pending
	Approve bool
}

// TransactionListFilter filters the transaction list
type TransactionListFilter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	EntityID *uuid.UUID
	Type     string
	Status   string
}

// TransactionResponse is the API view of a transaction record
type TransactionResponse struct {
	ID           uuid.UUID       `json:"id"`
	EntityID     uuid.UUID       `json:"entity_id"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	GatewayID    *uuid.UUID      `json:"gateway_id,omitempty"`
	Reference    string          `json:"reference,omitempty"`
	Comment      string          `json:"comment,omitempty"`
	IsFTD        bool            `json:"is_ftd"`
	IsFTW        bool            `json:"is_ftw"`
	CreatedBy    *uuid.UUID      `json:"created_by,omitempty"`
	ProcessedBy  *uuid.UUID      `json:"processed_by,omitempty"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
	RejectReason string          `json:"reject_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	Version      int             `json:"version"`
}

// ToTransactionResponse converts a domain transaction to its response
func ToTransactionResponse(t *finance.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		EntityID:     t.EntityID,
		Type:         string(t.Type),
		Status:       string(t.Status),
		Amount:       t.Amount,
		Currency:     t.Currency,
		GatewayID:    t.GatewayID,
		Reference:    t.Reference,
		Comment:      t.Comment,
		IsFTD:        t.IsFTD,
		IsFTW:        t.IsFTW,
		CreatedBy:    t.CreatedBy,
		ProcessedBy:  t.ProcessedBy,
		ProcessedAt:  t.ProcessedAt,
		RejectReason: t.RejectReason,
		CreatedAt:    t.CreatedAt,
		Version:      t.Version,
	}
}

// GatewayRequest carries the editable attributes of a gateway
type GatewayRequest struct {
	Name               string
	Provider           string
	Currencies         []string
	SupportsDeposit    bool
	SupportsWithdrawal bool
	MinAmount          decimal.Decimal
	MaxAmount          decimal.Decimal
	Enabled            bool
}

func (r GatewayRequest) toDomain() finance.GatewayInput {
	return finance.GatewayInput{
		Name:               r.Name,
		Provider:           r.Provider,
		Currencies:         r.Currencies,
		SupportsDeposit:    r.SupportsDeposit,
		SupportsWithdrawal: r.SupportsWithdrawal,
		MinAmount:          r.MinAmount,
		MaxAmount:          r.MaxAmount,
		Enabled:            r.Enabled,
	}
}

// GatewayResponse is the API view of a payment gateway
type GatewayResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Provider           string          `json:"provider,omitempty"`
	Currencies         []string        `json:"currencies"`
	SupportsDeposit    bool            `json:"supports_deposit"`
	SupportsWithdrawal bool            `json:"supports_withdrawal"`
	MinAmount          decimal.Decimal `json:"min_amount"`
	MaxAmount          decimal.Decimal `json:"max_amount"`
	Enabled            bool            `json:"enabled"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ToGatewayResponse converts a domain gateway to its response
func ToGatewayResponse(g *finance.Gateway) GatewayResponse {
	currencies := g.Currencies
	if currencies == nil {
		currencies = []string{}
	}
	return GatewayResponse{
		ID:                 g.ID,
		Name:               g.Name,
		Provider:           g.Provider,
		Currencies:         currencies,
		SupportsDeposit:    g.SupportsDeposit,
		SupportsWithdrawal: g.SupportsWithdrawal,
		MinAmount:          g.MinAmount,
		MaxAmount:          g.MaxAmount,
		Enabled:            g.Enabled,
		CreatedAt:          g.CreatedAt,
		UpdatedAt:          g.UpdatedAt,
	}
}
