package models

import (
	"time"

	"github.com/crm/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionModel is the persistence model for a transaction record.
type TransactionModel struct {
	AggregateModel
	EntityID     uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Type         finance.TransactionType   `gorm:"type:varchar(20);not null;index"`
	Status       finance.TransactionStatus `gorm:"type:varchar(20);not null;index"`
	Amount       decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	Currency     string                    `gorm:"type:varchar(3);not null"`
	GatewayID    *uuid.UUID                `gorm:"type:uuid;index"`
	Reference    string                    `gorm:"type:varchar(100)"`
	Comment      string                    `gorm:"type:text"`
	IsFTD        bool                      `gorm:"column:is_ftd;not null"`
	IsFTW        bool                      `gorm:"column:is_ftw;not null"`
	CreatedBy    *uuid.UUID                `gorm:"type:uuid"`
	ProcessedBy  *uuid.UUID                `gorm:"type:uuid"`
	ProcessedAt  *time.Time
	RejectReason string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *TransactionModel) ToDomain() *finance.Transaction {
	return &finance.Transaction{
		BaseAggregateRoot: m.ToAggregateRoot(),
		EntityID:          m.EntityID,
		Type:              m.Type,
		Status:            m.Status,
		Amount:            m.Amount,
		Currency:          m.Currency,
		GatewayID:         m.GatewayID,
		Reference:         m.Reference,
		Comment:           m.Comment,
		IsFTD:             m.IsFTD,
		IsFTW:             m.IsFTW,
		CreatedBy:         m.CreatedBy,
		ProcessedBy:       m.ProcessedBy,
		ProcessedAt:       m.ProcessedAt,
		RejectReason:      m.RejectReason,
	}
}

// FromDomain populates the persistence model from a domain Transaction.
func (m *TransactionModel) FromDomain(t *finance.Transaction) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.EntityID = t.EntityID
	m.Type = t.Type
	m.Status = t.Status
	m.Amount = t.Amount
	m.Currency = t.Currency
	m.GatewayID = t.GatewayID
	m.Reference = t.Reference
	m.Comment = t.Comment
	m.IsFTD = t.IsFTD
	m.IsFTW = t.IsFTW
	m.CreatedBy = t.CreatedBy
	m.ProcessedBy = t.ProcessedBy
	m.ProcessedAt = t.ProcessedAt
	m.RejectReason = t.RejectReason
}

// TransactionModelFromDomain creates a persistence model from a domain Transaction.
func TransactionModelFromDomain(t *finance.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}

// GatewayModel is the persistence model for a payment gateway.
type GatewayModel struct {
	BaseModel
	Name               string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Provider           string          `gorm:"type:varchar(100)"`
	Currencies         []string        `gorm:"type:text;serializer:json"`
	SupportsDeposit    bool            `gorm:"not null"`
	SupportsWithdrawal bool            `gorm:"not null"`
	MinAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	MaxAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Enabled            bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GatewayModel) TableName() string {
	return "gateways"
}

// ToDomain converts the persistence model to a domain Gateway.
func (m *GatewayModel) ToDomain() *finance.Gateway {
	return &finance.Gateway{
		BaseEntity:         m.BaseModel.ToDomain(),
		Name:               m.Name,
		Provider:           m.Provider,
		Currencies:         m.Currencies,
		SupportsDeposit:    m.SupportsDeposit,
		SupportsWithdrawal: m.SupportsWithdrawal,
		MinAmount:          m.MinAmount,
		MaxAmount:          m.MaxAmount,
		Enabled:            m.Enabled,
	}
}

// FromDomain populates the persistence model from a domain Gateway.
func (m *GatewayModel) FromDomain(g *finance.Gateway) {
	m.FromDomainBaseEntity(g.BaseEntity)
	m.Name = g.Name
	m.Provider = g.Provider
	m.Currencies = g.Currencies
	m.SupportsDeposit = g.SupportsDeposit
	m.SupportsWithdrawal = g.SupportsWithdrawal
	m.MinAmount = g.MinAmount
	m.MaxAmount = g.MaxAmount
	m.Enabled = g.Enabled
}

// GatewayModelFromDomain creates a persistence model from a domain Gateway.
func GatewayModelFromDomain(g *finance.Gateway) *GatewayModel {
	m := &GatewayModel{}
	m.FromDomain(g)
	return m
}
