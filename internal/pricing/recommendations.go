package pricing

import (
	"context"
	"fmt"

	"propvalue/server/internal/models"
)

// RecommendationSet is the working list produced by one valuation pass. It is
// owned by the caller that requested the pass and is not safe for concurrent
// use. Nothing in it is persisted; running a new pass is how it is refreshed.
type RecommendationSet struct {
	ownerID string
	items   []models.PricingRecommendation
	engine  *Engine
}

func (s *RecommendationSet) OwnerID() string {
	return s.ownerID
}

// Items returns a copy of the current recommendations.
func (s *RecommendationSet) Items() []models.PricingRecommendation {
	out := make([]models.PricingRecommendation, len(s.items))
	copy(out, s.items)
	return out
}

func (s *RecommendationSet) Len() int {
	return len(s.items)
}

// Ignore drops the recommendation for propertyID from the list only.
func (s *RecommendationSet) Ignore(propertyID string) bool {
	for i := range s.items {
		if s.items[i].PropertyID == propertyID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Apply marks the recommendation as applied in the list, then writes the
// recommended price to the store. The list is not rolled back when the write fails.
func (s *RecommendationSet) Apply(ctx context.Context, credential, propertyID string) error {
	idx := -1
	for i := range s.items {
		if s.items[i].PropertyID == propertyID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: no recommendation for property %s", models.ErrNotFound, propertyID)
	}

	newPrice := s.items[idx].RecommendedPrice
	s.items[idx].CurrentPrice = newPrice
	s.items[idx].RecommendedPrice = newPrice
	s.items[idx].Reason = AppliedReason

	if _, err := s.engine.ApplyPrice(ctx, credential, propertyID, newPrice); err != nil {
		return fmt.Errorf("failed to apply price for property %s: %w", propertyID, err)
	}
	return nil
}
