package trading

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/accounttype"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/trading"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// PositionService opens, marks and closes client positions
type PositionService struct {
	positionRepo    trading.Repository
	entityRepo      lead.EntityRepository
	accountTypeRepo accounttype.Repository
	tx              shared.TxRunner
	events          shared.EventPublisher
	logger          *zap.Logger
	now             func() time.Time
}

// NewPositionService creates a new PositionService
func NewPositionService(
	positionRepo trading.Repository,
	entityRepo lead.EntityRepository,
	accountTypeRepo accounttype.Repository,
	tx shared.TxRunner,
	events shared.EventPublisher,
	logger *zap.Logger,
) *PositionService {
	return &PositionService{
		positionRepo:    positionRepo,
		entityRepo:      entityRepo,
		accountTypeRepo: accountTypeRepo,
		tx:              tx,
		events:          events,
		logger:          logger,
		now:             time.Now,
	}
}

// Open opens a position for a client. The client's account type decides
// leverage, commission and whether the asset may be traded at all.
func (s *PositionService) Open(ctx context.Context, input OpenPositionInput) (_ *PositionResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "trading", "open",
		attribute.String("entity.id", input.EntityID.String()),
		attribute.String("position.symbol", input.Symbol),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	entity, err := s.entityRepo.FindByID(ctx, input.EntityID)
	if err != nil {
		return nil, err
	}
	if !entity.IsClient() {
		return nil, shared.NewDomainError("INVALID_STATE", "Only clients can open positions")
	}

	var accountType *accounttype.AccountType
	if entity.AccountTypeID != nil {
		accountType, err = s.accountTypeRepo.FindByID(ctx, *entity.AccountTypeID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	position, err := trading.Open(trading.OpenInput{
		EntityID:     entity.ID,
		Symbol:       input.Symbol,
		AssetClass:   accounttype.AssetClass(input.AssetClass),
		Side:         trading.Side(input.Side),
		Volume:       input.Volume,
		OpenPrice:    input.OpenPrice,
		ContractSize: input.ContractSize,
		StopLoss:     input.StopLoss,
		TakeProfit:   input.TakeProfit,
		OpenedAt:     s.now(),
	}, accountType)
	if err != nil {
		return nil, err
	}

	if err := s.positionRepo.Save(ctx, position); err != nil {
		s.logger.Error("Failed to save position", zap.Error(err))
		return nil, err
	}
	s.publish(ctx, position)

	s.logger.Info("Position opened",
		zap.String("position_id", position.ID.String()),
		zap.String("entity_id", entity.ID.String()),
		zap.String("symbol", position.Symbol),
		zap.String("volume", position.Volume.String()))
	response := ToPositionResponse(position)
	return &response, nil
}

// GetByID returns one position
func (s *PositionService) GetByID(ctx context.Context, id uuid.UUID) (*PositionResponse, error) {
	position, err := s.positionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPositionResponse(position)
	return &response, nil
}

// ListByEntity returns a page of one client's positions
func (s *PositionService) ListByEntity(ctx context.Context, filter PositionListFilter) ([]PositionResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = min(filter.PageSize, 100)
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	positions, err := s.positionRepo.FindByEntity(ctx, filter.EntityID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.positionRepo.CountByEntity(ctx, filter.EntityID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]PositionResponse, len(positions))
	for i := range positions {
		items[i] = ToPositionResponse(&positions[i])
	}
	return items, total, nil
}

// UpdatePrice marks one position to market; reaching the stop loss or take
// profit closes it at that price
func (s *PositionService) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (*PositionResponse, error) {
	position, err := s.positionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.mark(ctx, position, price); err != nil {
		return nil, err
	}
	response := ToPositionResponse(position)
	return &response, nil
}

// ApplySymbolPrice marks every open position of a symbol. Positions that hit
// their exits are closed and returned.
func (s *PositionService) ApplySymbolPrice(ctx context.Context, symbol string, price decimal.Decimal) (_ *PriceFeedResult, err error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	ctx, span := telemetry.StartServiceSpan(ctx, "trading", "apply_symbol_price", attribute.String("position.symbol", symbol))
	defer func() { telemetry.EndSpan(span, err) }()

	if !price.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Price must be greater than zero")
	}
	positions, err := s.positionRepo.FindOpenBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	result := &PriceFeedResult{Symbol: symbol}
	for i := range positions {
		position := &positions[i]
		if err := s.mark(ctx, position, price); err != nil {
			s.logger.Warn("Failed to apply price to position",
				zap.String("position_id", position.ID.String()),
				zap.Error(err))
			continue
		}
		result.Updated++
		if position.IsClosed() {
			result.Closed = append(result.Closed, ToPositionResponse(position))
		}
	}
	span.SetAttributes(attribute.Int("positions.updated", result.Updated), attribute.Int("positions.closed", len(result.Closed)))
	return result, nil
}

// SetExits replaces stop loss and take profit; nil clears them
func (s *PositionService) SetExits(ctx context.Context, id uuid.UUID, stopLoss, takeProfit *decimal.Decimal) (*PositionResponse, error) {
	position, err := s.positionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := position.SetExits(stopLoss, takeProfit); err != nil {
		return nil, err
	}
	if err := s.positionRepo.Save(ctx, position); err != nil {
		return nil, err
	}
	response := ToPositionResponse(position)
	return &response, nil
}

// ChargeSwap books overnight financing on an open position
func (s *PositionService) ChargeSwap(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*PositionResponse, error) {
	position, err := s.positionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := position.ChargeSwap(amount); err != nil {
		return nil, err
	}
	if err := s.positionRepo.Save(ctx, position); err != nil {
		return nil, err
	}
	response := ToPositionResponse(position)
	return &response, nil
}

// Close closes a position at price and credits the realized PnL to the client
func (s *PositionService) Close(ctx context.Context, id uuid.UUID, price decimal.Decimal) (_ *PositionResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "trading", "close", attribute.String("position.id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	position, err := s.positionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.close(ctx, position, price, trading.CloseManual); err != nil {
		return nil, err
	}
	response := ToPositionResponse(position)
	return &response, nil
}

func (s *PositionService) mark(ctx context.Context, position *trading.Position, price decimal.Decimal) error {
	reason, err := position.UpdatePrice(price)
	if err != nil {
		return err
	}
	if reason != "" {
		return s.close(ctx, position, price, reason)
	}
	return s.positionRepo.Save(ctx, position)
}

// close saves the position and the client balance in one transaction
func (s *PositionService) close(ctx context.Context, position *trading.Position, price decimal.Decimal, reason trading.CloseReason) error {
	var entity *lead.Entity
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		entity, err = s.entityRepo.FindByID(ctx, position.EntityID)
		if err != nil {
			return err
		}
		pnl, err := position.Close(price, reason, s.now())
		if err != nil {
			return err
		}
		entity.ApplyRealizedPnL(pnl)
		if err := s.positionRepo.Save(ctx, position); err != nil {
			return err
		}
		return s.entityRepo.SaveWithLock(ctx, entity)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, position)
	s.publish(ctx, entity)
	s.logger.Info("Position closed",
		zap.String("position_id", position.ID.String()),
		zap.String("reason", string(reason)),
		zap.String("pnl", position.RealizedPnL.String()))
	return nil
}

func (s *PositionService) publish(ctx context.Context, aggregate shared.AggregateRoot) {
	if err := shared.PublishPending(ctx, s.events, aggregate); err != nil {
		s.logger.Error("Failed to publish events", zap.String("aggregate_id", aggregate.GetID().String()), zap.Error(err))
	}
}
