package handler

import (
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// OpenPositionRequest represents the request body for opening a position.
// Leverage and commission come from the client's account type.
type OpenPositionRequest struct {
	EntityID     string           `json:"entity_id" binding:"required,uuid"`
	Symbol       string           `json:"symbol" binding:"required,max=32"`
	AssetClass   string           `json:"asset_class" binding:"required,oneof=forex crypto stocks indices commodities metals"`
	Side         string           `json:"side" binding:"required,oneof=buy sell"`
	Volume       decimal.Decimal  `json:"volume" binding:"gt=0"`
	OpenPrice    decimal.Decimal  `json:"open_price" binding:"gt=0"`
	ContractSize decimal.Decimal  `json:"contract_size" binding:"gte=0"`
	StopLoss     *decimal.Decimal `json:"stop_loss"`
	TakeProfit   *decimal.Decimal `json:"take_profit"`
}

// PriceRequest carries a market price
type PriceRequest struct {
	Price decimal.Decimal `json:"price" binding:"gt=0"`
}

// SymbolPriceRequest is one tick of the price feed
type SymbolPriceRequest struct {
	Symbol string          `json:"symbol" binding:"required,max=32"`
	Price  decimal.Decimal `json:"price" binding:"gt=0"`
}

// SetExitsRequest replaces the stop loss and take profit; null clears
type SetExitsRequest struct {
	StopLoss   *decimal.Decimal `json:"stop_loss"`
	TakeProfit *decimal.Decimal `json:"take_profit"`
}

// ChargeSwapRequest books an overnight swap; negative amounts are charges
type ChargeSwapRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// PositionListQuery filters the positions of one client
type PositionListQuery struct {
	dto.ListRequest
	EntityID string `form:"entity_id" binding:"required,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=open closed"`
}
