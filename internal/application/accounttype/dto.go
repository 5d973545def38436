package accounttype

import (
	"time"

	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountTypeRequest carries the editable attributes of an account type
type AccountTypeRequest struct {
	Name            string
	Description     string
	Currency        string
	MinDeposit      decimal.Decimal
	DefaultLeverage int
}

// AssetRuleRequest carries the trading conditions of one asset class
type AssetRuleRequest struct {
	Leverage         int
	SpreadMarkup     decimal.Decimal
	CommissionPerLot decimal.Decimal
	MaxVolume        decimal.Decimal
	Enabled          bool
}

// AssetRuleResponse is the API view of an asset rule
type AssetRuleResponse struct {
	ID               uuid.UUID       `json:"id"`
	AssetClass       string          `json:"asset_class"`
	Leverage         int             `json:"leverage"`
	SpreadMarkup     decimal.Decimal `json:"spread_markup"`
	CommissionPerLot decimal.Decimal `json:"commission_per_lot"`
	MaxVolume        decimal.Decimal `json:"max_volume"`
	Enabled          bool            `json:"enabled"`
}

// AccountTypeResponse is the API view of an account type
type AccountTypeResponse struct {
	ID              uuid.UUID           `json:"id"`
	Name            string              `json:"name"`
	Description     string              `json:"description,omitempty"`
	Currency        string              `json:"currency"`
	MinDeposit      decimal.Decimal     `json:"min_deposit"`
	DefaultLeverage int                 `json:"default_leverage"`
	Enabled         bool                `json:"enabled"`
	IsDefault       bool                `json:"is_default"`
	Rules           []AssetRuleResponse `json:"rules"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ToAccountTypeResponse converts a domain account type to its response
func ToAccountTypeResponse(a *accounttype.AccountType) AccountTypeResponse {
	rules := make([]AssetRuleResponse, len(a.Rules))
	for i, r := range a.Rules {
		rules[i] = AssetRuleResponse{
			ID:               r.ID,
			AssetClass:       string(r.AssetClass),
			Leverage:         r.Leverage,
			SpreadMarkup:     r.SpreadMarkup,
			CommissionPerLot: r.CommissionPerLot,
			MaxVolume:        r.MaxVolume,
			Enabled:          r.Enabled,
		}
	}
	return AccountTypeResponse{
		ID:              a.ID,
		Name:            a.Name,
		Description:     a.Description,
		Currency:        a.Currency,
		MinDeposit:      a.MinDeposit,
		DefaultLeverage: a.DefaultLeverage,
		Enabled:         a.Enabled,
		IsDefault:       a.IsDefault,
		Rules:           rules,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
