package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type queryStartKey struct{}

// RegisterDBTracing installs the otelgorm plugin plus a callback pair that marks slow
// queries and errors on the active span.
func RegisterDBTracing(db *gorm.DB, cfg config.TelemetryConfig, dbSystem string, logger *zap.Logger) error {
	if !cfg.Enabled || !cfg.DBTraceEnabled {
		return nil
	}
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}

	thresh := cfg.DBSlowQueryThresh
	if thresh <= 0 {
		thresh = 200 * time.Millisecond
	}
	cb := &slowQueryCallback{thresh: thresh}

	c := db.Callback()
	steps := []struct {
		name   string
		before func() error
		after  func() error
	}{
		{"create",
			func() error { return c.Create().Before("gorm:create").Register("crm_trace:before_create", cb.before) },
			func() error { return c.Create().After("gorm:create").Register("crm_trace:after_create", cb.after) }},
		{"query",
			func() error { return c.Query().Before("gorm:query").Register("crm_trace:before_query", cb.before) },
			func() error { return c.Query().After("gorm:query").Register("crm_trace:after_query", cb.after) }},
		{"update",
			func() error { return c.Update().Before("gorm:update").Register("crm_trace:before_update", cb.before) },
			func() error { return c.Update().After("gorm:update").Register("crm_trace:after_update", cb.after) }},
		{"delete",
			func() error { return c.Delete().Before("gorm:delete").Register("crm_trace:before_delete", cb.before) },
			func() error { return c.Delete().After("gorm:delete").Register("crm_trace:after_delete", cb.after) }},
		{"raw",
			func() error { return c.Raw().Before("gorm:raw").Register("crm_trace:before_raw", cb.before) },
			func() error { return c.Raw().After("gorm:raw").Register("crm_trace:after_raw", cb.after) }},
	}
	for _, s := range steps {
		if err := s.before(); err != nil {
			return err
		}
		if err := s.after(); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", dbSystem),
		zap.Duration("slow_query_threshold", thresh),
	)
	return nil
}

type slowQueryCallback struct {
	thresh time.Duration
	now    func() time.Time
}

func (c *slowQueryCallback) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *slowQueryCallback) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, c.clock())
	}
}

func (c *slowQueryCallback) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := c.clock().Sub(start); elapsed > c.thresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
