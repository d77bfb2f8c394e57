// Package pricing turns model price predictions into confidence-scored,
// owner-facing pricing recommendations.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"propvalue/server/internal/models"
	"propvalue/server/internal/prediction"
	"propvalue/server/internal/valuation"
)

// Stage is the progress of a valuation pass.
type Stage int

const (
	StageIdle Stage = iota
	StageFetchingProperties
	StagePredicting
	StageFiltering
	StageReady
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageFetchingProperties:
		return "fetching_properties"
	case StagePredicting:
		return "predicting"
	case StageFiltering:
		return "filtering"
	case StageReady:
		return "ready"
	default:
		return "unknown"
	}
}

// PropertySource is the slice of the property gateway the engine needs.
type PropertySource interface {
	GetByOwner(ctx context.Context, ownerID string) ([]models.Property, error)
	GetByID(ctx context.Context, id string) (*models.Property, error)
	Update(ctx context.Context, credential, id string, patch models.PropertyPatch) (*models.Property, error)
}

// Engine runs valuation passes over an owner's properties.
type Engine struct {
	source    PropertySource
	predictor prediction.Predictor
	workers   int
	logger    *logrus.Logger
	now       func() time.Time
}

func NewEngine(source PropertySource, predictor prediction.Predictor, workers int, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if workers <= 0 {
		workers = 1
	}

	return &Engine{
		source:    source,
		predictor: predictor,
		workers:   workers,
		logger:    logger,
		now:       time.Now,
	}
}

// Recommend values every property owned by ownerID. Failing to list the
// owner's properties aborts the pass; a failed prediction only drops that
// property. Recommendations keep the order of the owner's property list.
func (e *Engine) Recommend(ctx context.Context, ownerID string) (*RecommendationSet, error) {
	log := e.logger.WithField("owner_id", ownerID)

	log.WithField("stage", StageFetchingProperties.String()).Debug("Valuation pass started")
	properties, err := e.source.GetByOwner(ctx, ownerID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to fetch properties for owner %s: %w", ownerID, err)
	}

	log.WithFields(logrus.Fields{
		"stage":      StagePredicting.String(),
		"properties": len(properties),
	}).Debug("Predicting prices")
	candidates := e.predictAll(ctx, properties)

	log.WithField("stage", StageFiltering.String()).Debug("Filtering recommendations")
	items := make([]models.PricingRecommendation, 0, len(candidates))
	for _, rec := range candidates {
		if rec != nil && IsMaterial(*rec) {
			items = append(items, *rec)
		}
	}

	log.WithFields(logrus.Fields{
		"stage":           StageReady.String(),
		"recommendations": len(items),
	}).Info("Valuation pass completed")

	return &RecommendationSet{
		ownerID: ownerID,
		items:   items,
		engine:  e,
	}, nil
}

// predictAll fans the properties out to a bounded pool of workers. Each
// worker writes only the result slot of the property it took.
func (e *Engine) predictAll(ctx context.Context, properties []models.Property) []*models.PricingRecommendation {
	results := make([]*models.PricingRecommendation, len(properties))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rec, err := e.valuate(ctx, &properties[idx])
				if err != nil {
					e.logger.WithError(err).WithField("property_id", properties[idx].ID).Error("Failed to predict price")
					continue
				}
				results[idx] = rec
			}
		}()
	}

	for i := range properties {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// valuate returns nil without error for properties that carry no price for their type.
func (e *Engine) valuate(ctx context.Context, p *models.Property) (*models.PricingRecommendation, error) {
	priceType, current, ok := p.CurrentPrice()
	if !ok {
		return nil, nil
	}

	predicted, err := e.predictor.Predict(ctx, valuation.Encode(p))
	if err != nil {
		return nil, err
	}

	suggested := predicted
	if priceType == models.PriceTypeRent {
		suggested = SuggestedRent(predicted, e.now())
	}

	return &models.PricingRecommendation{
		PropertyID:       p.ID,
		PropertyName:     p.DisplayName(),
		PriceType:        priceType,
		CurrentPrice:     current,
		RecommendedPrice: roundPrice(suggested),
		Confidence:       Confidence(p),
		Reason:           ClassifyChange(suggested, current).Reason(),
	}, nil
}

// ApplyPrice writes newPrice to the price field matching the property type.
func (e *Engine) ApplyPrice(ctx context.Context, credential, propertyID string, newPrice float64) (*models.Property, error) {
	if newPrice <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", models.ErrValidation)
	}

	property, err := e.source.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	priceType, ok := property.Type.PriceType()
	if !ok {
		return nil, fmt.Errorf("%w: property %s has no priced type", models.ErrValidation, propertyID)
	}

	var patch models.PropertyPatch
	if priceType == models.PriceTypeSell {
		patch.SellPrice = &newPrice
	} else {
		patch.RentPrice = &newPrice
	}

	updated, err := e.source.Update(ctx, credential, propertyID, patch)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"property_id": propertyID,
		"price_type":  priceType,
		"price":       newPrice,
	}).Info("Applied recommended price")
	return updated, nil
}
