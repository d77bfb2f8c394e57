package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"propvalue/server/internal/models"
)

// PropertyRepository is the document store behind the property gateway.
// Lookups of a single record return models.ErrNotFound when it does not exist;
// list queries return an empty slice.
type PropertyRepository interface {
	Create(ctx context.Context, property *models.Property) error
	FindByID(ctx context.Context, id string) (*models.Property, error)
	FindAll(ctx context.Context) ([]models.Property, error)
	FindByOwner(ctx context.Context, ownerID string) ([]models.Property, error)
	Search(ctx context.Context, filters models.SearchFilters) ([]models.Property, error)
	// Update writes the mutable fields of property. Ownership, creation time and
	// foreign key lists are left as stored.
	Update(ctx context.Context, property *models.Property) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewID returns a fresh document id in ObjectID hex form, whatever the backend.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID reports whether id is a well formed ObjectID hex string.
func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
