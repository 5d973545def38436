package models

import (
	"time"

	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/crm/backend/internal/domain/trading"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PositionModel is the persistence model for a trading position.
type PositionModel struct {
	AggregateModel
	EntityID     uuid.UUID              `gorm:"type:uuid;not null;index"`
	Symbol       string                 `gorm:"type:varchar(32);not null;index"`
	AssetClass   accounttype.AssetClass `gorm:"type:varchar(20);not null"`
	Side         trading.Side           `gorm:"type:varchar(4);not null"`
	Volume       decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	ContractSize decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Leverage     int                    `gorm:"not null"`
	OpenPrice    decimal.Decimal        `gorm:"type:decimal(20,8);not null"`
	CurrentPrice decimal.Decimal        `gorm:"type:decimal(20,8);not null"`
	ClosePrice   decimal.Decimal        `gorm:"type:decimal(20,8);not null"`
	StopLoss     *decimal.Decimal       `gorm:"type:decimal(20,8)"`
	TakeProfit   *decimal.Decimal       `gorm:"type:decimal(20,8)"`
	Commission   decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Swap         decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	RealizedPnL  decimal.Decimal        `gorm:"column:realized_pnl;type:decimal(18,2);not null"`
	Status       trading.Status         `gorm:"type:varchar(10);not null;index"`
	CloseReason  trading.CloseReason    `gorm:"type:varchar(20)"`
	OpenedAt     time.Time              `gorm:"not null"`
	ClosedAt     *time.Time
}

// TableName returns the table name for GORM
func (PositionModel) TableName() string {
	return "positions"
}

// ToDomain converts the persistence model to a domain Position.
func (m *PositionModel) ToDomain() *trading.Position {
	return &trading.Position{
		BaseAggregateRoot: m.ToAggregateRoot(),
		EntityID:          m.EntityID,
		Symbol:            m.Symbol,
		AssetClass:        m.AssetClass,
		Side:              m.Side,
		Volume:            m.Volume,
		ContractSize:      m.ContractSize,
		Leverage:          m.Leverage,
		OpenPrice:         m.OpenPrice,
		CurrentPrice:      m.CurrentPrice,
		ClosePrice:        m.ClosePrice,
		StopLoss:          m.StopLoss,
		TakeProfit:        m.TakeProfit,
		Commission:        m.Commission,
		Swap:              m.Swap,
		RealizedPnL:       m.RealizedPnL,
		Status:            m.Status,
		CloseReason:       m.CloseReason,
		OpenedAt:          m.OpenedAt,
		ClosedAt:          m.ClosedAt,
	}
}

// FromDomain populates the persistence model from a domain Position.
func (m *PositionModel) FromDomain(p *trading.Position) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.EntityID = p.EntityID
	m.Symbol = p.Symbol
	m.AssetClass = p.AssetClass
	m.Side = p.Side
	m.Volume = p.Volume
	m.ContractSize = p.ContractSize
	m.Leverage = p.Leverage
	m.OpenPrice = p.OpenPrice
	m.CurrentPrice = p.CurrentPrice
	m.ClosePrice = p.ClosePrice
	m.StopLoss = p.StopLoss
	m.TakeProfit = p.TakeProfit
	m.Commission = p.Commission
	m.Swap = p.Swap
	m.RealizedPnL = p.RealizedPnL
	m.Status = p.Status
	m.CloseReason = p.CloseReason
	m.OpenedAt = p.OpenedAt
	m.ClosedAt = p.ClosedAt
}

// PositionModelFromDomain creates a persistence model from a domain Position.
func PositionModelFromDomain(p *trading.Position) *PositionModel {
	m := &PositionModel{}
	m.FromDomain(p)
	return m
}
