package handler

import (
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest represents the request body for a money movement
type CreateTransactionRequest struct {
	EntityID  string          `json:"entity_id" binding:"required,uuid"`
	Type      string          `json:"type" binding:"required,oneof=deposit withdrawal credit_in credit_out"`
	Amount    decimal.Decimal `json:"amount" binding:"gt=0"`
	Currency  string          `json:"currency" binding:"omitempty,iso4217"`
	GatewayID string          `json:"gateway_id" binding:"omitempty,uuid"`
	Reference string          `json:"reference" binding:"max=100"`
	Comment   string          `json:"comment" binding:"max=500"`
	// Approve processes the record immediately instead of queueing it
	Approve bool `json:"approve"`
}

// RejectTransactionRequest carries the reason shown to the back office
type RejectTransactionRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// TransactionListQuery filters the transaction list
type TransactionListQuery struct {
	dto.ListRequest
	EntityID string `form:"entity_id" binding:"omitempty,uuid"`
	Type     string `form:"type" binding:"omitempty,oneof=deposit withdrawal credit_in credit_out"`
	Status   string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

// GatewayRequestBody represents the request body for a payment gateway
type GatewayRequestBody struct {
	Name               string          `json:"name" binding:"required,max=100"`
	Provider           string          `json:"provider" binding:"max=100"`
	Currencies         []string        `json:"currencies" binding:"dive,iso4217"`
	SupportsDeposit    bool            `json:"supports_deposit"`
	SupportsWithdrawal bool            `json:"supports_withdrawal"`
	MinAmount          decimal.Decimal `json:"min_amount" binding:"gte=0"`
	MaxAmount          decimal.Decimal `json:"max_amount" binding:"gte=0"`
	Enabled            bool            `json:"enabled"`
}
