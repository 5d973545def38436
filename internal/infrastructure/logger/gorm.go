package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const maxLoggedSQL = 2000

// GormLogger routes GORM's statement log through zap.
type GormLogger struct {
	log     *zap.Logger
	level   gormlogger.LogLevel
	slow    time.Duration
	fullSQL bool
}

// NewGormLogger creates a GORM logger. Queries slower than slow are logged
// at warn; a zero slow disables the check. Unless fullSQL is set, statements
// longer than maxLoggedSQL bytes are truncated.
func NewGormLogger(l *zap.Logger, level string, slow time.Duration, fullSQL bool) *GormLogger {
	return &GormLogger{
		log:     Component(l, "gorm"),
		level:   GormLevel(level),
		slow:    slow,
		fullSQL: fullSQL,
	}
}

// LogMode implements gormlogger.Interface
func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

// Info implements gormlogger.Interface
func (g *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		enrich(ctx, g.log).Sugar().Infof(msg, args...)
	}
}

// Warn implements gormlogger.Interface
func (g *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		enrich(ctx, g.log).Sugar().Warnf(msg, args...)
	}
}

// Error implements gormlogger.Interface
func (g *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		enrich(ctx, g.log).Sugar().Errorf(msg, args...)
	}
}

// Trace implements gormlogger.Interface
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	notFound := errors.Is(err, gorm.ErrRecordNotFound)
	isSlow := g.slow > 0 && elapsed > g.slow
	switch {
	case err != nil && !notFound && g.level >= gormlogger.Error:
	case isSlow && g.level >= gormlogger.Warn:
	case g.level >= gormlogger.Info:
	default:
		return
	}

	sql, rows := fc()
	if !g.fullSQL && len(sql) > maxLoggedSQL {
		sql = sql[:maxLoggedSQL] + "..."
	}
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	l := enrich(ctx, g.log)

	switch {
	case err != nil && !notFound && g.level >= gormlogger.Error:
		l.Error("sql error", append(fields, zap.Error(err))...)
	case isSlow && g.level >= gormlogger.Warn:
		l.Warn("slow sql", append(fields, zap.Duration("threshold", g.slow))...)
	default:
		l.Debug("sql", fields...)
	}
}

// GormLevel maps an application log level onto GORM's levels.
func GormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
