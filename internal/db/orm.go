package db

import (
	"context"
	"fmt"

	"meetings/boardroom/internal/config"
	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/metrics"
	gormModels "meetings/boardroom/internal/models/gorm"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func gormConfig(metricsReg *metrics.MetricsRegistry) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(metricsReg),
	}
}

// OpenORM connects to the driver named in the config.
func OpenORM(cfg *config.Config, metricsReg *metrics.MetricsRegistry) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return InitSQLiteORM(cfg.SQLitePath, metricsReg)
	default:
		return InitPostgresORM(cfg.PostgresDSN(), metricsReg)
	}
}

func InitPostgresORM(dsn string, metricsReg *metrics.MetricsRegistry) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig(metricsReg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	logging.Info("Connected to Postgres via GORM")
	return db, nil
}

// InitSQLiteORM opens a sqlite file with foreign keys enforced.
func InitSQLiteORM(path string, metricsReg *metrics.MetricsRegistry) (*gorm.DB, error) {
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(metricsReg))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}

	// sqlite has a single writer; one connection avoids SQLITE_BUSY churn.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	logging.Info("Opened SQLite via GORM", "path", path)
	return db, nil
}

// Migrate creates or updates every table, index and foreign key.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(gormModels.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
