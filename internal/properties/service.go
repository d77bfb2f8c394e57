// Package properties is the gateway between callers and the property store.
// It validates input, enforces owner-gated mutation and fronts reads with an
// optional read-through cache.
//
// The cache is populated on read and expires by TTL only. Writes do not
// invalidate it, so a lookup may serve a stale record until the entry expires.
package properties

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"propvalue/server/internal/cache"
	"propvalue/server/internal/database"
	"propvalue/server/internal/models"
)

const (
	DefaultPropertyTTL        = time.Hour
	DefaultSearchTTL          = 30 * time.Minute
	DefaultSearchHistoryLimit = 100
)

// Authenticator resolves a credential to the acting user id.
type Authenticator interface {
	Subject(credential string) (string, error)
}

type Options struct {
	PropertyTTL        time.Duration
	SearchTTL          time.Duration
	SearchHistoryLimit int
	// StrictCreateOwnership requires create to carry a credential whose
	// subject matches ownerId. Off by default: create trusts ownerId.
	StrictCreateOwnership bool
}

type Service struct {
	repo   database.PropertyRepository
	cache  cache.Cache
	auth   Authenticator
	opts   Options
	logger *logrus.Logger
	now    func() time.Time
}

func NewService(repo database.PropertyRepository, c cache.Cache, auth Authenticator, opts Options, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if c == nil {
		c = cache.Noop{}
	}
	if opts.PropertyTTL <= 0 {
		opts.PropertyTTL = DefaultPropertyTTL
	}
	if opts.SearchTTL <= 0 {
		opts.SearchTTL = DefaultSearchTTL
	}
	if opts.SearchHistoryLimit <= 0 {
		opts.SearchHistoryLimit = DefaultSearchHistoryLimit
	}

	return &Service{
		repo:   repo,
		cache:  c,
		auth:   auth,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Create stores a new property for draft.OwnerID.
func (s *Service) Create(ctx context.Context, credential string, draft *models.Property) (*models.Property, error) {
	if s.opts.StrictCreateOwnership {
		subject, err := s.auth.Subject(credential)
		if err != nil {
			return nil, err
		}
		if draft.OwnerID == "" {
			draft.OwnerID = subject
		}
		if draft.OwnerID != subject {
			return nil, fmt.Errorf("%w: ownerId does not match credential", models.ErrForbidden)
		}
	}

	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	property := *draft
	property.ID = database.NewID()
	property.CreatedAt = s.now().UTC()
	property.UpdatedAt = nil
	if property.Images == nil {
		property.Images = []string{}
	}
	property.TransactionIDs = []string{}
	property.MaintenanceRequestIDs = []string{}
	property.LeaseIDs = []string{}
	property.BookingIDs = []string{}

	if err := s.repo.Create(ctx, &property); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"property_id": property.ID,
		"owner_id":    property.OwnerID,
	}).Info("Property created")

	return &property, nil
}

func (s *Service) GetAll(ctx context.Context) ([]models.Property, error) {
	return s.repo.FindAll(ctx)
}

// GetByID reads through the cache.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Property, error) {
	if !database.IsValidID(id) {
		return nil, fmt.Errorf("%w: Invalid property ID", models.ErrValidation)
	}

	key := cache.PropertyKey(id)
	var cached models.Property
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
	} else if found {
		s.logger.WithField("key", key).Debug("Cache hit")
		return &cached, nil
	}

	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, propertyNotFound(err)
	}

	if err := s.cache.Set(ctx, key, property, s.opts.PropertyTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
	return property, nil
}

// GetByOwner returns models.ErrNotFound when the owner has no properties.
func (s *Service) GetByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	if !database.IsValidID(ownerID) {
		return nil, fmt.Errorf("%w: Invalid owner ID", models.ErrValidation)
	}

	properties, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(properties) == 0 {
		return properties, fmt.Errorf("%w: No properties found for this owner", models.ErrNotFound)
	}
	return properties, nil
}

// Search runs a conjunctive filter query. An empty result is reported as
// models.ErrNotFound alongside the empty slice.
func (s *Service) Search(ctx context.Context, filters models.SearchFilters) ([]models.Property, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, filters.Status)
	}
	if filters.Type != "" && !filters.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", models.ErrValidation, filters.Type)
	}

	canonical, err := json.Marshal(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize search filters: %w", err)
	}

	if err := s.cache.PushCapped(ctx, cache.SearchHistoryKey, string(canonical), s.opts.SearchHistoryLimit); err != nil {
		s.logger.WithError(err).Warn("Failed to record search history")
	}

	key := cache.SearchKey(string(canonical))
	var cached []models.Property
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
	} else if found {
		s.logger.WithField("key", key).Debug("Cache hit")
		return cached, nil
	}

	properties, err := s.repo.Search(ctx, filters)
	if err != nil {
		return nil, err
	}
	if len(properties) == 0 {
		return properties, fmt.Errorf("%w: No properties found matching the search criteria", models.ErrNotFound)
	}

	if err := s.cache.Set(ctx, key, properties, s.opts.SearchTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
	return properties, nil
}

// Update applies patch to the property if the credential's subject owns it.
func (s *Service) Update(ctx context.Context, credential, id string, patch models.PropertyPatch) (*models.Property, error) {
	property, err := s.authorize(ctx, credential, id)
	if err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	patch.Apply(property)
	updatedAt := s.now().UTC()
	property.UpdatedAt = &updatedAt

	if err := s.repo.Update(ctx, property); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"property_id": id,
		"owner_id":    updated.OwnerID,
	}).Info("Property updated")

	return updated, nil
}

// Delete removes the property if the credential's subject owns it.
func (s *Service) Delete(ctx context.Context, credential, id string) error {
	property, err := s.authorize(ctx, credential, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"property_id": id,
		"owner_id":    property.OwnerID,
	}).Info("Property deleted")
	return nil
}

// authorize loads the property straight from the store and checks ownership.
func (s *Service) authorize(ctx context.Context, credential, id string) (*models.Property, error) {
	subject, err := s.auth.Subject(credential)
	if err != nil {
		return nil, err
	}
	if !database.IsValidID(id) {
		return nil, fmt.Errorf("%w: Invalid property ID", models.ErrValidation)
	}

	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, propertyNotFound(err)
	}
	if property.OwnerID != subject {
		s.logger.WithFields(logrus.Fields{
			"property_id": id,
			"subject":     subject,
		}).Warn("Rejected mutation by non-owner")
		return nil, fmt.Errorf("%w: Forbidden: You do not own this property", models.ErrForbidden)
	}
	return property, nil
}

func propertyNotFound(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: Property not found", models.ErrNotFound)
	}
	return err
}

func validateDraft(p *models.Property) error {
	if !database.IsValidID(p.OwnerID) {
		return fmt.Errorf("%w: invalid ownerId", models.ErrValidation)
	}

	var missing []string
	for field, value := range map[string]string{
		"name":     p.Name,
		"country":  p.Country,
		"state":    p.State,
		"city":     p.City,
		"status":   string(p.Status),
		"type":     string(p.Type),
		"category": p.Category,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: missing required fields: %s", models.ErrValidation, strings.Join(missing, ", "))
	}

	if !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", models.ErrValidation, p.Status)
	}
	if !p.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", models.ErrValidation, p.Type)
	}
	if p.LeaseTerm != nil && !p.LeaseTerm.Valid() {
		return fmt.Errorf("%w: unknown lease term %q", models.ErrValidation, *p.LeaseTerm)
	}
	return nil
}

func validatePatch(patch models.PropertyPatch) error {
	if patch.Status != nil && !patch.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", models.ErrValidation, *patch.Status)
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", models.ErrValidation, *patch.Type)
	}
	if patch.LeaseTerm != nil && !patch.LeaseTerm.Valid() {
		return fmt.Errorf("%w: unknown lease term %q", models.ErrValidation, *patch.LeaseTerm)
	}
	return nil
}
