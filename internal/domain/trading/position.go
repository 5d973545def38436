package trading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the direction of a position
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// IsValid reports whether s is a known side
func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

func (s Side) sign() decimal.Decimal {
	if s == SideSell {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// Status is the lifecycle state of a position
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// CloseReason explains why a position was closed
type CloseReason string

const (
	CloseManual     CloseReason = "manual"
	CloseStopLoss   CloseReason = "stop_loss"
	CloseTakeProfit CloseReason = "take_profit"
)

// default contract sizes per asset class, in units per lot
var defaultContractSizes = map[accounttype.AssetClass]int64{
	accounttype.AssetForex:       100000,
	accounttype.AssetMetals:      100,
	accounttype.AssetCommodities: 1000,
}

// DefaultContractSize returns the units per lot of an asset class
func DefaultContractSize(class accounttype.AssetClass) decimal.Decimal {
	if size, ok := defaultContractSizes[class]; ok {
		return decimal.NewFromInt(size)
	}
	return decimal.NewFromInt(1)
}

// Position is an open or closed trade of a client
type Position struct {
	shared.BaseAggregateRoot
	EntityID     uuid.UUID
	Symbol       string
	AssetClass   accounttype.AssetClass
	Side         Side
	Volume       decimal.Decimal
	ContractSize decimal.Decimal
	Leverage     int
	OpenPrice    decimal.Decimal
	CurrentPrice decimal.Decimal
	ClosePrice   decimal.Decimal
	StopLoss     *decimal.Decimal
	TakeProfit   *decimal.Decimal
	Commission   decimal.Decimal
	Swap         decimal.Decimal
	RealizedPnL  decimal.Decimal
	Status       Status
	CloseReason  CloseReason
	OpenedAt     time.Time
	ClosedAt     *time.Time
}

// OpenInput holds the parameters of a new position
type OpenInput struct {
	EntityID     uuid.UUID
	Symbol       string
	AssetClass   accounttype.AssetClass
	Side         Side
	Volume       decimal.Decimal
	OpenPrice    decimal.Decimal
	ContractSize decimal.Decimal
	StopLoss     *decimal.Decimal
	TakeProfit   *decimal.Decimal
	OpenedAt     time.Time
}

// Open creates a position. When the client has an account type, its asset
// rule decides whether the trade is allowed and sets leverage and commission.
func Open(in OpenInput, accountType *accounttype.AccountType) (*Position, error) {
	if in.EntityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Client is required")
	}
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	if symbol == "" || len(symbol) > 20 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Symbol is required and cannot exceed 20 characters")
	}
	if !in.AssetClass.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid asset class %q", in.AssetClass))
	}
	if !in.Side.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid side %q", in.Side))
	}
	if !in.Volume.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Volume must be greater than zero")
	}
	if !in.OpenPrice.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Open price must be greater than zero")
	}
	if err := validateExits(in.Side, in.OpenPrice, in.StopLoss, in.TakeProfit); err != nil {
		return nil, err
	}

	contractSize := in.ContractSize
	if contractSize.IsZero() {
		contractSize = DefaultContractSize(in.AssetClass)
	}
	if contractSize.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Contract size cannot be negative")
	}

	leverage := 1
	commission := decimal.Zero
	if accountType != nil {
		if err := accountType.CheckTrade(in.AssetClass, in.Volume); err != nil {
			return nil, err
		}
		leverage = accountType.LeverageFor(in.AssetClass)
		commission = accountType.CommissionFor(in.AssetClass, in.Volume)
	}

	openedAt := in.OpenedAt
	if openedAt.IsZero() {
		openedAt = time.Now()
	}

	p := &Position{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EntityID:          in.EntityID,
		Symbol:            symbol,
		AssetClass:        in.AssetClass,
		Side:              in.Side,
		Volume:            in.Volume,
		ContractSize:      contractSize,
		Leverage:          leverage,
		OpenPrice:         in.OpenPrice,
		CurrentPrice:      in.OpenPrice,
		StopLoss:          in.StopLoss,
		TakeProfit:        in.TakeProfit,
		Commission:        commission,
		Swap:              decimal.Zero,
		RealizedPnL:       decimal.Zero,
		Status:            StatusOpen,
		OpenedAt:          openedAt,
	}
	p.AddDomainEvent(NewPositionOpenedEvent(p))
	return p, nil
}

func validateExits(side Side, open decimal.Decimal, sl, tp *decimal.Decimal) error {
	if sl != nil {
		if !sl.IsPositive() {
			return shared.NewDomainError("INVALID_INPUT", "Stop loss must be greater than zero")
		}
		if (side == SideBuy && sl.GreaterThanOrEqual(open)) || (side == SideSell && sl.LessThanOrEqual(open)) {
			return shared.NewDomainError("INVALID_INPUT", "Stop loss must be on the losing side of the open price")
		}
	}
	if tp != nil {
		if !tp.IsPositive() {
			return shared.NewDomainError("INVALID_INPUT", "Take profit must be greater than zero")
		}
		if (side == SideBuy && tp.LessThanOrEqual(open)) || (side == SideSell && tp.GreaterThanOrEqual(open)) {
			return shared.NewDomainError("INVALID_INPUT", "Take profit must be on the winning side of the open price")
		}
	}
	return nil
}

// PnL is the result of the position at a price:
// (price - open) * volume * contract size * direction - commission + swap
func (p *Position) PnL(price decimal.Decimal) decimal.Decimal {
	gross := price.Sub(p.OpenPrice).Mul(p.Volume).Mul(p.ContractSize).Mul(p.Side.sign())
	return gross.Sub(p.Commission).Add(p.Swap).Round(2)
}

// FloatingPnL is the unrealized result at the current price, or the
// realized result once closed
func (p *Position) FloatingPnL() decimal.Decimal {
	if p.IsClosed() {
		return p.RealizedPnL
	}
	return p.PnL(p.CurrentPrice)
}

// IsClosed reports whether the position has been closed
func (p *Position) IsClosed() bool {
	return p.Status == StatusClosed
}

// UpdatePrice marks the position to market. The returned reason is set when
// the price reached the stop loss or take profit.
func (p *Position) UpdatePrice(price decimal.Decimal) (CloseReason, error) {
	if p.IsClosed() {
		return "", shared.NewDomainError("INVALID_STATE", "Position is closed")
	}
	if !price.IsPositive() {
		return "", shared.NewDomainError("INVALID_INPUT", "Price must be greater than zero")
	}
	p.CurrentPrice = price
	p.Touch()
	return p.triggeredExit(price), nil
}

func (p *Position) triggeredExit(price decimal.Decimal) CloseReason {
	if p.Side == SideBuy {
		if p.StopLoss != nil && price.LessThanOrEqual(*p.StopLoss) {
			return CloseStopLoss
		}
		if p.TakeProfit != nil && price.GreaterThanOrEqual(*p.TakeProfit) {
			return CloseTakeProfit
		}
		return ""
	}
	if p.StopLoss != nil && price.GreaterThanOrEqual(*p.StopLoss) {
		return CloseStopLoss
	}
	if p.TakeProfit != nil && price.LessThanOrEqual(*p.TakeProfit) {
		return CloseTakeProfit
	}
	return ""
}

// SetExits replaces stop loss and take profit of an open position
func (p *Position) SetExits(sl, tp *decimal.Decimal) error {
	if p.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Position is closed")
	}
	if err := validateExits(p.Side, p.CurrentPrice, sl, tp); err != nil {
		return err
	}
	p.StopLoss = sl
	p.TakeProfit = tp
	p.Touch()
	return nil
}

// ChargeSwap books an overnight financing amount; negative values are costs
func (p *Position) ChargeSwap(amount decimal.Decimal) error {
	if p.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Position is closed")
	}
	p.Swap = p.Swap.Add(amount)
	p.Touch()
	return nil
}

// Close realizes the position at price and returns the realized PnL, which
// the caller credits to the client's balance
func (p *Position) Close(price decimal.Decimal, reason CloseReason, at time.Time) (decimal.Decimal, error) {
	if p.IsClosed() {
		return decimal.Zero, shared.NewDomainError("INVALID_STATE", "Position is already closed")
	}
	if !price.IsPositive() {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT", "Close price must be greater than zero")
	}
	if reason == "" {
		reason = CloseManual
	}
	p.ClosePrice = price
	p.CurrentPrice = price
	p.RealizedPnL = p.PnL(price)
	p.Status = StatusClosed
	p.CloseReason = reason
	p.ClosedAt = &at
	p.Touch()
	p.AddDomainEvent(NewPositionClosedEvent(p))
	return p.RealizedPnL, nil
}

// Repository persists positions
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Position, error)
	// FindByStatus loads every position in a state for in-memory list views
	FindByStatus(ctx context.Context, status Status) ([]Position, error)
	FindByEntity(ctx context.Context, entityID uuid.UUID, filter shared.Filter) ([]Position, error)
	CountByEntity(ctx context.Context, entityID uuid.UUID, filter shared.Filter) (int64, error)
	FindOpenBySymbol(ctx context.Context, symbol string) ([]Position, error)
	Save(ctx context.Context, position *Position) error
}
