package api

import "propvalue/server/internal/models"

// propertyRequest binds both JSON and multipart form bodies. Identity,
// foreign key lists and images are never read from it.
type propertyRequest struct {
	Name            *string  `json:"name" form:"name"`
	Description     *string  `json:"description" form:"description"`
	Country         *string  `json:"country" form:"country"`
	State           *string  `json:"state" form:"state"`
	City            *string  `json:"city" form:"city"`
	OwnerID         *string  `json:"ownerId" form:"ownerId"`
	Status          *string  `json:"status" form:"status"`
	Type            *string  `json:"type" form:"type"`
	Category        *string  `json:"category" form:"category"`
	SellPrice       *float64 `json:"sellPrice" form:"sellPrice"`
	RentPrice       *float64 `json:"rentPrice" form:"rentPrice"`
	LeaseTerm       *string  `json:"leaseTerm" form:"leaseTerm"`
	RoomCount       *int     `json:"roomCount" form:"roomCount"`
	Bathrooms       *float64 `json:"bathrooms" form:"bathrooms"`
	Bedrooms        *int     `json:"bedrooms" form:"bedrooms"`
	YearBuilt       *int     `json:"yearBuilt" form:"yearBuilt"`
	LivingAreaSqft  *float64 `json:"livingAreaSqft" form:"livingAreaSqft"`
	PropertyTaxRate *float64 `json:"propertyTaxRate" form:"propertyTaxRate"`
}

func (r propertyRequest) toProperty() *models.Property {
	p := &models.Property{
		Name:            deref(r.Name),
		Description:     nonEmpty(r.Description),
		Country:         deref(r.Country),
		State:           deref(r.State),
		City:            deref(r.City),
		OwnerID:         deref(r.OwnerID),
		Status:          models.PropertyStatus(deref(r.Status)),
		Type:            models.PropertyType(deref(r.Type)),
		Category:        deref(r.Category),
		SellPrice:       r.SellPrice,
		RentPrice:       r.RentPrice,
		RoomCount:       r.RoomCount,
		Bathrooms:       r.Bathrooms,
		Bedrooms:        r.Bedrooms,
		YearBuilt:       r.YearBuilt,
		LivingAreaSqft:  r.LivingAreaSqft,
		PropertyTaxRate: r.PropertyTaxRate,
	}
	if term := nonEmpty(r.LeaseTerm); term != nil {
		leaseTerm := models.LeaseTerm(*term)
		p.LeaseTerm = &leaseTerm
	}
	return p
}

func (r propertyRequest) toPatch() models.PropertyPatch {
	patch := models.PropertyPatch{
		Name:            r.Name,
		Description:     r.Description,
		Country:         r.Country,
		State:           r.State,
		City:            r.City,
		Category:        r.Category,
		SellPrice:       r.SellPrice,
		RentPrice:       r.RentPrice,
		RoomCount:       r.RoomCount,
		Bathrooms:       r.Bathrooms,
		Bedrooms:        r.Bedrooms,
		YearBuilt:       r.YearBuilt,
		LivingAreaSqft:  r.LivingAreaSqft,
		PropertyTaxRate: r.PropertyTaxRate,
	}
	if r.Status != nil {
		status := models.PropertyStatus(*r.Status)
		patch.Status = &status
	}
	if r.Type != nil {
		propertyType := models.PropertyType(*r.Type)
		patch.Type = &propertyType
	}
	if r.LeaseTerm != nil {
		leaseTerm := models.LeaseTerm(*r.LeaseTerm)
		patch.LeaseTerm = &leaseTerm
	}
	return patch
}

// predictRequest carries already encoded features, as sent by the pricing UI.
type predictRequest struct {
	HomeStatus      *float64 `json:"homeStatus"`
	HomeType        *float64 `json:"homeType"`
	City            *float64 `json:"city"`
	State           *float64 `json:"state"`
	YearBuilt       *float64 `json:"yearBuilt"`
	LivingAreaSqft  *float64 `json:"livingAreaSqft"`
	Bathrooms       *float64 `json:"bathrooms"`
	Bedrooms        *float64 `json:"bedrooms"`
	PropertyTaxRate *float64 `json:"propertyTaxRate"`
}

func (r predictRequest) complete() bool {
	for _, v := range []*float64{
		r.HomeStatus, r.HomeType, r.City, r.State, r.YearBuilt,
		r.LivingAreaSqft, r.Bathrooms, r.Bedrooms, r.PropertyTaxRate,
	} {
		if v == nil {
			return false
		}
	}
	return true
}

func (r predictRequest) toVector() models.FeatureVector {
	return models.FeatureVector{
		HomeStatus:      int(*r.HomeStatus),
		HomeType:        int(*r.HomeType),
		City:            int(*r.City),
		State:           int(*r.State),
		YearBuilt:       int(*r.YearBuilt),
		LivingAreaSqft:  *r.LivingAreaSqft,
		Bathrooms:       *r.Bathrooms,
		Bedrooms:        int(*r.Bedrooms),
		PropertyTaxRate: *r.PropertyTaxRate,
	}
}

type applyPriceRequest struct {
	Price *float64 `json:"price" binding:"required"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
