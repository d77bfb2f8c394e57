package pricing

import (
	"math"
	"time"

	"propvalue/server/internal/models"
)

const (
	// MonthlyRentFactor converts a predicted sale price into a monthly rent.
	MonthlyRentFactor = 0.01
	// PeakSeasonFactor marks up rents from June through September.
	PeakSeasonFactor = 1.10
	// MaterialityThreshold is the relative delta a recommendation must exceed.
	MaterialityThreshold = 0.05

	baseConfidence      = 65
	confidencePerFactor = 7
	maxConfidence       = 95

	AppliedReason = "Price recently updated"
)

// Trend classifies the relative move from the current to the recommended price.
type Trend int

const (
	TrendAligned Trend = iota
	TrendHighDemand
	TrendSlightIncrease
	TrendCompetitiveRepricing
	TrendMinorDecrease
)

func (t Trend) String() string {
	switch t {
	case TrendHighDemand:
		return "high_demand"
	case TrendSlightIncrease:
		return "slight_increase"
	case TrendCompetitiveRepricing:
		return "competitive_repricing"
	case TrendMinorDecrease:
		return "minor_decrease"
	case TrendAligned:
		return "aligned"
	default:
		return "unknown"
	}
}

// Reason is the owner-facing explanation shown next to a recommendation.
func (t Trend) Reason() string {
	switch t {
	case TrendHighDemand:
		return "High demand in this area suggests potential for increased pricing"
	case TrendSlightIncrease:
		return "Slight increase recommended based on market trends"
	case TrendCompetitiveRepricing:
		return "Occupancy rates may improve with a more competitive price"
	case TrendMinorDecrease:
		return "Minor price adjustment recommended to stay competitive"
	default:
		return "Current pricing is aligned with market value"
	}
}

// ClassifyChange buckets the percentage change from current to recommended.
func ClassifyChange(recommended, current float64) Trend {
	percentChange := (recommended - current) / current * 100
	switch {
	case percentChange > 10:
		return TrendHighDemand
	case percentChange > 5:
		return TrendSlightIncrease
	case percentChange < -10:
		return TrendCompetitiveRepricing
	case percentChange < -5:
		return TrendMinorDecrease
	default:
		return TrendAligned
	}
}

// Confidence scores how much structured data backs a valuation, in [65, 95].
func Confidence(p *models.Property) int {
	present := 0
	if p.YearBuilt != nil && *p.YearBuilt != 0 {
		present++
	}
	if p.LivingAreaSqft != nil && *p.LivingAreaSqft != 0 {
		present++
	}
	if p.Bathrooms != nil && *p.Bathrooms != 0 {
		present++
	}
	if p.Bedrooms != nil && *p.Bedrooms != 0 {
		present++
	}
	if p.PropertyTaxRate != nil && *p.PropertyTaxRate != 0 {
		present++
	}

	confidence := baseConfidence + confidencePerFactor*present
	if confidence > maxConfidence {
		return maxConfidence
	}
	return confidence
}

// SuggestedRent derives a monthly rent from a predicted sale price.
func SuggestedRent(predictedSellPrice float64, now time.Time) float64 {
	rent := predictedSellPrice * MonthlyRentFactor
	if isPeakSeason(now) {
		rent *= PeakSeasonFactor
	}
	return rent
}

func isPeakSeason(now time.Time) bool {
	month := now.Month()
	return month >= time.June && month <= time.September
}

// IsMaterial reports whether the recommendation moves the price by more than
// MaterialityThreshold.
func IsMaterial(rec models.PricingRecommendation) bool {
	if rec.CurrentPrice == 0 {
		return false
	}
	return math.Abs(rec.RecommendedPrice-rec.CurrentPrice)/rec.CurrentPrice > MaterialityThreshold
}

// roundPrice rounds half up, matching how displayed prices were always rounded.
func roundPrice(v float64) float64 {
	return math.Floor(v + 0.5)
}
