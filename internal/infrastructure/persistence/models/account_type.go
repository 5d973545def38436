package models

import (
	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountTypeModel is the persistence model for an account type.
type AccountTypeModel struct {
	AggregateModel
	Name            string           `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description     string           `gorm:"type:text"`
	Currency        string           `gorm:"type:varchar(3);not null"`
	MinDeposit      decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	DefaultLeverage int              `gorm:"not null"`
	Enabled         bool             `gorm:"not null"`
	IsDefault       bool             `gorm:"not null"`
	Rules           []AssetRuleModel `gorm:"foreignKey:AccountTypeID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (AccountTypeModel) TableName() string {
	return "account_types"
}

// AssetRuleModel stores one per-asset-class rule of an account type.
type AssetRuleModel struct {
	ID               uuid.UUID              `gorm:"type:uuid;primaryKey"`
	AccountTypeID    uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_asset_rule_class,priority:1"`
	AssetClass       accounttype.AssetClass `gorm:"type:varchar(20);not null;uniqueIndex:idx_asset_rule_class,priority:2"`
	Leverage         int                    `gorm:"not null"`
	SpreadMarkup     decimal.Decimal        `gorm:"type:decimal(18,5);not null"`
	CommissionPerLot decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	MaxVolume        decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Enabled          bool                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AssetRuleModel) TableName() string {
	return "account_type_asset_rules"
}

// ToDomain converts the persistence model to a domain AccountType.
func (m *AccountTypeModel) ToDomain() *accounttype.AccountType {
	at := &accounttype.AccountType{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		Currency:          m.Currency,
		MinDeposit:        m.MinDeposit,
		DefaultLeverage:   m.DefaultLeverage,
		Enabled:           m.Enabled,
		IsDefault:         m.IsDefault,
		Rules:             make([]accounttype.AssetRule, 0, len(m.Rules)),
	}
	for _, r := range m.Rules {
		at.Rules = append(at.Rules, accounttype.AssetRule{
			ID:               r.ID,
			AccountTypeID:    r.AccountTypeID,
			AssetClass:       r.AssetClass,
			Leverage:         r.Leverage,
			SpreadMarkup:     r.SpreadMarkup,
			CommissionPerLot: r.CommissionPerLot,
			MaxVolume:        r.MaxVolume,
			Enabled:          r.Enabled,
		})
	}
	return at
}

// FromDomain populates the persistence model from a domain AccountType.
func (m *AccountTypeModel) FromDomain(at *accounttype.AccountType) {
	m.FromDomainAggregateRoot(at.BaseAggregateRoot)
	m.Name = at.Name
	m.Description = at.Description
	m.Currency = at.Currency
	m.MinDeposit = at.MinDeposit
	m.DefaultLeverage = at.DefaultLeverage
	m.Enabled = at.Enabled
	m.IsDefault = at.IsDefault
	m.Rules = make([]AssetRuleModel, len(at.Rules))
	for i, r := range at.Rules {
		m.Rules[i] = AssetRuleModel{
			ID:               r.ID,
			AccountTypeID:    at.ID,
			AssetClass:       r.AssetClass,
			Leverage:         r.Leverage,
			SpreadMarkup:     r.SpreadMarkup,
			CommissionPerLot: r.CommissionPerLot,
			MaxVolume:        r.MaxVolume,
			Enabled:          r.Enabled,
		}
	}
}

// AccountTypeModelFromDomain creates a persistence model from a domain AccountType.
func AccountTypeModelFromDomain(at *accounttype.AccountType) *AccountTypeModel {
	m := &AccountTypeModel{}
	m.FromDomain(at)
	return m
}
