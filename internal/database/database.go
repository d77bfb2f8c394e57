package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"propvalue/server/internal/models"
)

// immutableColumns are never written by Update.
var immutableColumns = []string{
	"id",
	"owner_id",
	"created_at",
	"transaction_ids",
	"maintenance_request_ids",
	"lease_ids",
	"booking_ids",
}

// GormRepository stores properties in a relational database through GORM.
// It backs local development with SQLite.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(dbPath string) (*GormRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &GormRepository{db: db}, nil
}

// NewGormRepositoryFromDB wraps an existing connection.
func NewGormRepositoryFromDB(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, property *models.Property) error {
	if property.ID == "" {
		property.ID = NewID()
	}
	if err := r.db.WithContext(ctx).Create(property).Error; err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

func (r *GormRepository) FindByID(ctx context.Context, id string) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&property).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query property: %w", err)
	}
	return &property, nil
}

func (r *GormRepository) FindAll(ctx context.Context) ([]models.Property, error) {
	properties := make([]models.Property, 0)
	if err := r.db.WithContext(ctx).Order("created_at").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	return properties, nil
}

func (r *GormRepository) FindByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	properties := make([]models.Property, 0)
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at").
		Find(&properties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query properties by owner: %w", err)
	}
	return properties, nil
}

func (r *GormRepository) Search(ctx context.Context, filters models.SearchFilters) ([]models.Property, error) {
	query := r.db.WithContext(ctx).Model(&models.Property{})

	// Free text fields match as case-insensitive substrings
	for column, value := range map[string]string{
		"country":  filters.Country,
		"state":    filters.State,
		"city":     filters.City,
		"category": filters.Category,
	} {
		if value != "" {
			query = query.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(value))+"%")
		}
	}

	// Enumerated fields match exactly
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}

	properties := make([]models.Property, 0)
	if err := query.Order("created_at").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to search properties: %w", err)
	}
	return properties, nil
}

func (r *GormRepository) Update(ctx context.Context, property *models.Property) error {
	if property.UpdatedAt == nil {
		now := time.Now()
		property.UpdatedAt = &now
	}

	result := r.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", property.ID).
		Select("*").
		Omit(immutableColumns...).
		Updates(property)
	if result.Error != nil {
		return fmt.Errorf("failed to update property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Property{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
