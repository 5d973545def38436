package main

import (
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// openDatabase connects with the configured driver. The sqlite schema is
// created from the models; Postgres expects `crmctl migrate up` first.
func openDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger: logger.NewGormLogger(log, "warn", cfg.Telemetry.DBSlowQueryThresh, false),
	})
	if err != nil {
		return nil, err
	}
	if db.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}
