package handler

import "github.com/shopspring/decimal"

// AccountTypeRequestBody represents the request body for an account type
type AccountTypeRequestBody struct {
	Name            string          `json:"name" binding:"required,max=100"`
	Description     string          `json:"description" binding:"max=500"`
	Currency        string          `json:"currency" binding:"required,iso4217"`
	MinDeposit      decimal.Decimal `json:"min_deposit" binding:"gte=0"`
	DefaultLeverage int             `json:"default_leverage" binding:"required,min=1,max=1000"`
}

// AssetRuleRequestBody carries the trading conditions of one asset class
type AssetRuleRequestBody struct {
	Leverage         int             `json:"leverage" binding:"required,min=1,max=1000"`
	SpreadMarkup     decimal.Decimal `json:"spread_markup" binding:"gte=0"`
	CommissionPerLot decimal.Decimal `json:"commission_per_lot" binding:"gte=0"`
	// MaxVolume of zero means unlimited
	MaxVolume decimal.Decimal `json:"max_volume" binding:"gte=0"`
	Enabled   bool            `json:"enabled"`
}
