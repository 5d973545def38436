package trading

import (
	"time"

	"github.com/crm/backend/internal/domain/trading"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpenPositionInput contains the data for a new position
type OpenPositionInput struct {
	EntityID     uuid.UUID
	Symbol       string
	AssetClass   string
	Side         string
	Volume       decimal.Decimal
	OpenPrice    decimal.Decimal
	ContractSize decimal.Decimal
	StopLoss     *decimal.Decimal
	TakeProfit   *decimal.Decimal
}

// PositionListFilter filters the positions of one client
type PositionListFilter struct {
	EntityID uuid.UUID
	Status   string
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// PositionResponse is the API view of a position
type PositionResponse struct {
	ID           uuid.UUID        `json:"id"`
	EntityID     uuid.UUID        `json:"entity_id"`
	Symbol       string           `json:"symbol"`
	AssetClass   string           `json:"asset_class"`
	Side         string           `json:"side"`
	Volume       decimal.Decimal  `json:"volume"`
	ContractSize decimal.Decimal  `json:"contract_size"`
	Leverage     int              `json:"leverage"`
	OpenPrice    decimal.Decimal  `json:"open_price"`
	CurrentPrice decimal.Decimal  `json:"current_price"`
	ClosePrice   *decimal.Decimal `json:"close_price,omitempty"`
	StopLoss     *decimal.Decimal `json:"stop_loss,omitempty"`
	TakeProfit   *decimal.Decimal `json:"take_profit,omitempty"`
	Commission   decimal.Decimal  `json:"commission"`
	Swap         decimal.Decimal  `json:"swap"`
	PnL          decimal.Decimal  `json:"pnl"`
	Status       string           `json:"status"`
	CloseReason  string           `json:"close_reason,omitempty"`
	OpenedAt     time.Time        `json:"opened_at"`
	ClosedAt     *time.Time       `json:"closed_at,omitempty"`
	Version      int              `json:"version"`
}

// ToPositionResponse converts a domain position to its response
func ToPositionResponse(p *trading.Position) PositionResponse {
	resp := PositionResponse{
		ID:           p.ID,
		EntityID:     p.EntityID,
		Symbol:       p.Symbol,
		AssetClass:   string(p.AssetClass),
		Side:         string(p.Side),
		Volume:       p.Volume,
		ContractSize: p.ContractSize,
		Leverage:     p.Leverage,
		OpenPrice:    p.OpenPrice,
		CurrentPrice: p.CurrentPrice,
		StopLoss:     p.StopLoss,
		TakeProfit:   p.TakeProfit,
		Commission:   p.Commission,
		Swap:         p.Swap,
		PnL:          p.FloatingPnL(),
		Status:       string(p.Status),
		CloseReason:  string(p.CloseReason),
		OpenedAt:     p.OpenedAt,
		ClosedAt:     p.ClosedAt,
		Version:      p.Version,
	}
	if p.IsClosed() {
		closePrice := p.ClosePrice
		resp.ClosePrice = &closePrice
	}
	return resp
}

// PriceFeedResult summarizes a symbol price update
type PriceFeedResult struct {
	Symbol  string             `json:"symbol"`
	Updated int                `json:"updated"`
	Closed  []PositionResponse `json:"closed,omitempty"`
}
