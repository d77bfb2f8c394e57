// Package valuation turns property records into model input vectors.
package valuation

import (
	"strings"
	"unicode/utf16"

	"propvalue/server/internal/models"
)

// locationBuckets is the width of the location hash space. Distinct names may
// share a bucket.
const locationBuckets = 1000

// HomeStatus codes understood by the price model.
const (
	HomeStatusUnknown = iota
	HomeStatusForSale
	HomeStatusPending
	HomeStatusSold
	HomeStatusOffMarket
)

// HomeType codes understood by the price model.
const (
	HomeTypeUnknown = iota
	HomeTypeRealEstate
	HomeTypeRentedRealEstate
	HomeTypeHotel
	HomeTypeApartment
	HomeTypeHouse
	HomeTypeCondo
	HomeTypeTownhouse
)

// Encode maps a property onto the model's feature vector. Missing values encode as 0.
func Encode(p *models.Property) models.FeatureVector {
	if p == nil {
		return models.FeatureVector{}
	}
	return models.FeatureVector{
		HomeStatus:      HomeStatusCode(string(p.Status)),
		HomeType:        HomeTypeCode(string(p.Type)),
		City:            LocationHash(p.City),
		State:           LocationHash(p.State),
		YearBuilt:       intOrZero(p.YearBuilt),
		LivingAreaSqft:  floatOrZero(p.LivingAreaSqft),
		Bathrooms:       floatOrZero(p.Bathrooms),
		Bedrooms:        intOrZero(p.Bedrooms),
		PropertyTaxRate: floatOrZero(p.PropertyTaxRate),
	}
}

// HomeStatusCode maps a listing status onto the model's home status code.
func HomeStatusCode(status string) int {
	switch strings.ToLower(status) {
	case "for_sale":
		return HomeStatusForSale
	case "pending":
		return HomeStatusPending
	case "sold":
		return HomeStatusSold
	case "off_market":
		return HomeStatusOffMarket
	default:
		return HomeStatusUnknown
	}
}

// HomeTypeCode maps a property type or home type name onto the model's code.
func HomeTypeCode(homeType string) int {
	switch strings.ToLower(homeType) {
	case string(models.TypeRealEstate):
		return HomeTypeRealEstate
	case string(models.TypeRentedRealEstate):
		return HomeTypeRentedRealEstate
	case string(models.TypeHotel):
		return HomeTypeHotel
	case "apartment":
		return HomeTypeApartment
	case "house":
		return HomeTypeHouse
	case "condo":
		return HomeTypeCondo
	case "townhouse":
		return HomeTypeTownhouse
	default:
		return HomeTypeUnknown
	}
}

// LocationHash folds a place name into [0, 999] with a shift-and-subtract
// rolling hash over UTF-16 code units in 32-bit signed arithmetic. The model
// was trained on exactly these buckets, so the arithmetic must not change.
func LocationHash(location string) int {
	var hash int32
	for _, unit := range utf16.Encode([]rune(location)) {
		hash = (hash << 5) - hash + int32(unit)
	}
	bucket := int(hash % locationBuckets)
	if bucket < 0 {
		bucket = -bucket
	}
	return bucket
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
