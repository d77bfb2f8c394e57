package database

import (
	"fmt"

	"propvalue/server/internal/models"
)

func (r *GormRepository) RunMigrations() error {
	if err := r.db.AutoMigrate(&models.Property{}); err != nil {
		return fmt.Errorf("failed to migrate properties table: %w", err)
	}

	// Owner dashboards and searches filter on these columns
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_properties_city ON properties(city);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_status_type ON properties(status, type);`,
	} {
		if err := r.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
