package db

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/pinkertons/activity-ledger/internal/config"
	"github.com/pinkertons/activity-ledger/internal/logger"
)

// Open connects to Postgres with every table placed in cfg.Schema.
func Open(cfg config.DatabaseConfig, logMode string, log *logger.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if !isProd(logMode) {
		level = gormlogger.Info // SQL + timings
	}
	lg := gormlogger.New(
		zap.NewStdLog(log.SugaredLogger.Desugar()),
		gormlogger.Config{
			SlowThreshold:             100 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         lg,
		NamingStrategy: NamingStrategy(cfg.Schema),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// One importer or a small API; a handful of connections is plenty.
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("connected to database", "schema", cfg.Schema)
	return db, nil
}

// NamingStrategy prefixes every table with the schema.
func NamingStrategy(schemaName string) schema.NamingStrategy {
	if schemaName == "" {
		return schema.NamingStrategy{}
	}
	return schema.NamingStrategy{TablePrefix: schemaName + "."}
}

// Close releases the pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isProd(mode string) bool {
	switch strings.ToLower(mode) {
	case "prod", "production":
		return true
	}
	return false
}
