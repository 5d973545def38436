package finance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/finance"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// TransactionService records deposits, withdrawals and credit adjustments
// and applies approved ones to the client balance
type TransactionService struct {
	txRepo      finance.TransactionRepository
	entityRepo  lead.EntityRepository
	gatewayRepo finance.GatewayRepository
	tx          shared.TxRunner
	cfg         config.FinanceConfig
	events      shared.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	txRepo finance.TransactionRepository,
	entityRepo lead.EntityRepository,
	gatewayRepo finance.GatewayRepository,
	tx shared.TxRunner,
	cfg config.FinanceConfig,
	events shared.EventPublisher,
	logger *zap.Logger,
) *TransactionService {
	return &TransactionService{
		txRepo:      txRepo,
		entityRepo:  entityRepo,
		gatewayRepo: gatewayRepo,
		tx:          tx,
		cfg:         cfg,
		events:      events,
		logger:      logger,
		now:         time.Now,
	}
}

// Create records a transaction. It stays pending unless the input asks for
// approval or it is a credit adjustment and those are auto-approved.
func (s *TransactionService) Create(ctx context.Context, input CreateTransactionInput) (_ *TransactionResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "finance", "create_transaction",
		attribute.String("entity.id", input.EntityID.String()),
		attribute.String("transaction.type", input.Type),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	var gateway *finance.Gateway
	if input.GatewayID != nil {
		gateway, err = s.gatewayRepo.FindByID(ctx, *input.GatewayID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_INPUT", "Gateway does not exist")
			}
			return nil, err
		}
	}
	currency := strings.TrimSpace(input.Currency)
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	txType := finance.TransactionType(input.Type)
	approve := input.Approve || (s.cfg.AutoApproveCredit && (txType == finance.TypeCreditIn || txType == finance.TypeCreditOut))

	var (
		record *finance.Transaction
		entity *lead.Entity
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		entity, err = s.entityRepo.FindByID(ctx, input.EntityID)
		if err != nil {
			return err
		}
		record, err = finance.NewTransaction(finance.NewTransactionInput{
			EntityID:  input.EntityID,
			Type:      txType,
			Amount:    input.Amount,
			Currency:  currency,
			Reference: input.Reference,
			Comment:   input.Comment,
			CreatedBy: input.CreatedBy,
		}, entity, gateway)
		if err != nil {
			return err
		}
		if !approve {
			return s.txRepo.Save(ctx, record)
		}

		by := uuid.Nil
		if input.CreatedBy != nil {
			by = *input.CreatedBy
		}
		if err := record.Approve(entity, by, s.now()); err != nil {
			return err
		}
		if err := s.txRepo.Save(ctx, record); err != nil {
			return err
		}
		return s.entityRepo.SaveWithLock(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, record)
	s.publish(ctx, entity)
	s.logger.Info("Transaction created",
		zap.String("transaction_id", record.ID.String()),
		zap.String("type", string(record.Type)),
		zap.String("status", string(record.Status)),
		zap.String("amount", record.Amount.StringFixed(2)))
	response := ToTransactionResponse(record)
	return &response, nil
}

// Approve applies a pending transaction to the client balance. Funds are
// checked again against the balance at approval time.
func (s *TransactionService) Approve(ctx context.Context, id, approvedBy uuid.UUID) (_ *TransactionResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "finance", "approve_transaction", attribute.String("transaction.id", id.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	var (
		record *finance.Transaction
		entity *lead.Entity
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		record, err = s.txRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		entity, err = s.entityRepo.FindByID(ctx, record.EntityID)
		if err != nil {
			return err
		}
		if err := record.Approve(entity, approvedBy, s.now()); err != nil {
			return err
		}
		if err := s.txRepo.Save(ctx, record); err != nil {
			return err
		}
		return s.entityRepo.SaveWithLock(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, record)
	s.publish(ctx, entity)
	s.logger.Info("Transaction approved",
		zap.String("transaction_id", id.String()),
		zap.Bool("ftd", record.IsFTD),
		zap.Bool("ftw", record.IsFTW))
	response := ToTransactionResponse(record)
	return &response, nil
}

// Reject closes a pending transaction without touching the balance
func (s *TransactionService) Reject(ctx context.Context, id, rejectedBy uuid.UUID, reason string) (*TransactionResponse, error) {
	record, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := record.Reject(rejectedBy, reason, s.now()); err != nil {
		return nil, err
	}
	if err := s.txRepo.Save(ctx, record); err != nil {
		return nil, err
	}
	s.publish(ctx, record)

	s.logger.Info("Transaction rejected", zap.String("transaction_id", id.String()), zap.String("reason", record.RejectReason))
	response := ToTransactionResponse(record)
	return &response, nil
}

// GetByID returns one transaction
func (s *TransactionService) GetByID(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	record, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToTransactionResponse(record)
	return &response, nil
}

// List returns a page of transactions
func (s *TransactionService) List(ctx context.Context, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
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
	domainFilter.Search = filter.Search
	if filter.EntityID != nil {
		domainFilter.Filters["entity_id"] = *filter.EntityID
	}
	if filter.Type != "" {
		domainFilter.Filters["type"] = filter.Type
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	records, err := s.txRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.txRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]TransactionResponse, len(records))
	for i := range records {
		items[i] = ToTransactionResponse(&records[i])
	}
	return items, total, nil
}

func (s *TransactionService) publish(ctx context.Context, aggregate shared.AggregateRoot) {
	if err := shared.PublishPending(ctx, s.events, aggregate); err != nil {
		s.logger.Error("Failed to publish events", zap.String("aggregate_id", aggregate.GetID().String()), zap.Error(err))
	}
}
