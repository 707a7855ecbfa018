package db

import (
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/pinkertons/activity-ledger/internal/store"
)

func EnsureSchema(d *gorm.DB, schema string) error {
	return d.Exec("CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(schema)).Error
}

// Migrate creates the schema and every table in it.
func Migrate(s *store.Store, schema string) error {
	if err := EnsureSchema(s.DB(), schema); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	return s.Migrate()
}
