package trading

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateTypePosition = "Position"

const (
	EventTypePositionOpened = "PositionOpened"
	EventTypePositionClosed = "PositionClosed"
)

// PositionOpenedEvent is published when a trade is opened
type PositionOpenedEvent struct {
	shared.BaseDomainEvent
	PositionID uuid.UUID       `json:"position_id"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	Volume     decimal.Decimal `json:"volume"`
	OpenPrice  decimal.Decimal `json:"open_price"`
}

func NewPositionOpenedEvent(p *Position) *PositionOpenedEvent {
	return &PositionOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePositionOpened, AggregateTypePosition, p.ID),
		PositionID:      p.ID,
		EntityID:        p.EntityID,
		Symbol:          p.Symbol,
		Side:            p.Side,
		Volume:          p.Volume,
		OpenPrice:       p.OpenPrice,
	}
}

// PositionClosedEvent is published when a trade is closed
type PositionClosedEvent struct {
	shared.BaseDomainEvent
	PositionID  uuid.UUID       `json:"position_id"`
	EntityID    uuid.UUID       `json:"entity_id"`
	Symbol      string          `json:"symbol"`
	ClosePrice  decimal.Decimal `json:"close_price"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	Reason      CloseReason     `json:"reason"`
}

func NewPositionClosedEvent(p *Position) *PositionClosedEvent {
	return &PositionClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePositionClosed, AggregateTypePosition, p.ID),
		PositionID:      p.ID,
		EntityID:        p.EntityID,
		Symbol:          p.Symbol,
		ClosePrice:      p.ClosePrice,
		RealizedPnL:     p.RealizedPnL,
		Reason:          p.CloseReason,
	}
}
