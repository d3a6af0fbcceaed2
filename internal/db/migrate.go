package db

import (
	"fmt"

	"gorm.io/gorm"

	"bizdesk/internal/model"
)

// models lists every table in dependency order (owners first).
func models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Crm{},
		&model.Invoice{},
		&model.ServiceItem{},
		&model.DataStore{},
	}
}

// Migrate creates or updates the schema for all models.
func Migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// DropAll drops every table, children first. Missing tables are not an error.
func DropAll(gormDB *gorm.DB) error {
	tables := models()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := gormDB.Migrator().DropTable(tables[i]); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return nil
}
