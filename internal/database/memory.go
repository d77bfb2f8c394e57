package database

import (
	"context"
	"fmt"
	"sync"

	"propvalue/server/internal/models"
)

// MemoryRepository keeps properties in process memory, in insertion order.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]models.Property
	order []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[string]models.Property),
	}
}

func (r *MemoryRepository) Create(_ context.Context, property *models.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if property.ID == "" {
		property.ID = NewID()
	}
	if _, exists := r.items[property.ID]; exists {
		return fmt.Errorf("property %s already exists", property.ID)
	}
	r.items[property.ID] = clone(*property)
	r.order = append(r.order, property.ID)
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*models.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := clone(p)
	return &out, nil
}

func (r *MemoryRepository) FindAll(_ context.Context) ([]models.Property, error) {
	return r.filter(func(*models.Property) bool { return true }), nil
}

func (r *MemoryRepository) FindByOwner(_ context.Context, ownerID string) ([]models.Property, error) {
	return r.filter(func(p *models.Property) bool { return p.OwnerID == ownerID }), nil
}

func (r *MemoryRepository) Search(_ context.Context, filters models.SearchFilters) ([]models.Property, error) {
	return r.filter(filters.Matches), nil
}

func (r *MemoryRepository) Update(_ context.Context, property *models.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[property.ID]
	if !ok {
		return models.ErrNotFound
	}

	updated := clone(*property)
	updated.OwnerID = stored.OwnerID
	updated.CreatedAt = stored.CreatedAt
	updated.TransactionIDs = stored.TransactionIDs
	updated.MaintenanceRequestIDs = stored.MaintenanceRequestIDs
	updated.LeaseIDs = stored.LeaseIDs
	updated.BookingIDs = stored.BookingIDs
	r.items[property.ID] = updated
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}

func (r *MemoryRepository) filter(keep func(*models.Property) bool) []models.Property {
	r.mu.RLock()
	defer r.mu.RUnlock()

	properties := make([]models.Property, 0)
	for _, id := range r.order {
		p := r.items[id]
		if keep(&p) {
			properties = append(properties, clone(p))
		}
	}
	return properties
}

// clone copies the slices so callers cannot mutate stored records.
func clone(p models.Property) models.Property {
	p.Images = copyStrings(p.Images)
	p.TransactionIDs = copyStrings(p.TransactionIDs)
	p.MaintenanceRequestIDs = copyStrings(p.MaintenanceRequestIDs)
	p.LeaseIDs = copyStrings(p.LeaseIDs)
	p.BookingIDs = copyStrings(p.BookingIDs)
	return p
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
