package telemetry

import (
	"context"

	"github.com/crm/backend/internal/domain/finance"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/lead"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/trading"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics counts CRM domain events. It subscribes to the event bus.
type BusinessMetrics struct {
	entitiesCreated   *Counter
	entitiesConverted *Counter
	transactions      *Counter
	transactionAmount *Histogram
	positionsOpened   *Counter
	positionsClosed   *Counter
	realizedPnL       *Histogram
	usersLocked       *Counter
	exportsGenerated  *Counter
	loginAttempts     *Counter
}

// NewBusinessMetrics registers the business instruments on meter.
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		bm  BusinessMetrics
		err error
	)
	counters := []struct {
		dst  **Counter
		name string
		desc string
	}{
		{&bm.entitiesCreated, "crm.entities.created", "Leads created"},
		{&bm.entitiesConverted, "crm.entities.converted", "Leads converted to clients"},
		{&bm.transactions, "crm.transactions", "Transaction lifecycle events by type and status"},
		{&bm.positionsOpened, "crm.positions.opened", "Positions opened"},
		{&bm.positionsClosed, "crm.positions.closed", "Positions closed"},
		{&bm.usersLocked, "crm.users.locked", "Accounts locked after repeated login failures"},
		{&bm.exportsGenerated, "crm.exports", "CSV exports by table and delivery"},
		{&bm.loginAttempts, "crm.logins", "Login attempts by result"},
	}
	for _, c := range counters {
		if *c.dst, err = NewCounter(meter, c.name, c.desc, "{event}"); err != nil {
			return nil, err
		}
	}
	if bm.transactionAmount, err = NewHistogram(meter, "crm.transactions.amount",
		"Approved transaction amounts", "{currency}",
		100, 250, 500, 1000, 5000, 10000, 50000); err != nil {
		return nil, err
	}
	if bm.realizedPnL, err = NewHistogram(meter, "crm.positions.realized_pnl",
		"Realized profit and loss of closed positions", "{currency}"); err != nil {
		return nil, err
	}
	return &bm, nil
}

// EventTypes lists the domain events the metrics handler consumes.
func (bm *BusinessMetrics) EventTypes() []string {
	return []string{
		lead.EventTypeEntityCreated,
		lead.EventTypeEntityConverted,
		finance.EventTypeTransactionCreated,
		finance.EventTypeTransactionApproved,
		finance.EventTypeTransactionRejected,
		trading.EventTypePositionOpened,
		trading.EventTypePositionClosed,
		identity.EventTypeUserLocked,
	}
}

// Handle records the event. It never fails.
func (bm *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *lead.EntityCreatedEvent:
		bm.entitiesCreated.Inc(ctx)
	case *lead.EntityConvertedEvent:
		bm.entitiesConverted.Inc(ctx, attribute.Bool("ftd", e.FTD))
	case *finance.TransactionEvent:
		attrs := []attribute.KeyValue{
			attribute.String("type", string(e.Type)),
			attribute.String("status", string(e.Status)),
		}
		bm.transactions.Inc(ctx, attrs...)
		if e.EventType() == finance.EventTypeTransactionApproved {
			amount, _ := e.Amount.Float64()
			bm.transactionAmount.Record(ctx, amount,
				attribute.String("type", string(e.Type)),
				attribute.String("currency", e.Currency),
			)
		}
	case *trading.PositionOpenedEvent:
		bm.positionsOpened.Inc(ctx, attribute.String("symbol", e.Symbol))
	case *trading.PositionClosedEvent:
		bm.positionsClosed.Inc(ctx, attribute.String("reason", string(e.Reason)))
		pnl, _ := e.RealizedPnL.Float64()
		bm.realizedPnL.Record(ctx, pnl, attribute.String("symbol", e.Symbol))
	case *identity.UserEvent:
		if e.EventType() == identity.EventTypeUserLocked {
			bm.usersLocked.Inc(ctx)
		}
	}
	return nil
}

// RecordExport counts a finished export; delivery is "stream" or "stored".
func (bm *BusinessMetrics) RecordExport(ctx context.Context, table, delivery string) {
	bm.exportsGenerated.Inc(ctx, attribute.String("table", table), attribute.String("delivery", delivery))
}

// RecordLogin counts a login attempt; result is "success", "failure" or "locked".
func (bm *BusinessMetrics) RecordLogin(ctx context.Context, result string) {
	bm.loginAttempts.Inc(ctx, attribute.String("result", result))
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
