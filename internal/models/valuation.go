package models

type PriceType string

const (
	PriceTypeSell PriceType = "sell"
	PriceTypeRent PriceType = "rent"
)

// FeatureVector is the fixed-order numeric model input derived from a Property.
type FeatureVector struct {
	HomeStatus      int
	HomeType        int
	City            int
	State           int
	YearBuilt       int
	LivingAreaSqft  float64
	Bathrooms       float64
	Bedrooms        int
	PropertyTaxRate float64
}

// PricingRecommendation is a transient valuation result for one property.
type PricingRecommendation struct {
	PropertyID       string    `json:"propertyId"`
	PropertyName     string    `json:"propertyName"`
	PriceType        PriceType `json:"priceType"`
	CurrentPrice     float64   `json:"currentPrice"`
	RecommendedPrice float64   `json:"recommendedPrice"`
	Confidence       int       `json:"confidence"`
	Reason           string    `json:"reason"`
}
