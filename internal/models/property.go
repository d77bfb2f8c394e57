package models

import (
	"strings"
	"time"
)

// PropertyType classifies a listing and decides which price field is meaningful.
type PropertyType string

const (
	TypeRealEstate       PropertyType = "real_estate"
	TypeRentedRealEstate PropertyType = "rented_real_estate"
	TypeHotel            PropertyType = "hotel"
)

// Valid reports whether t is one of the known property types
func (t PropertyType) Valid() bool {
	switch t {
	case TypeRealEstate, TypeRentedRealEstate, TypeHotel:
		return true
	default:
		return false
	}
}

// PriceType returns which price a property of this type is valued on.
func (t PropertyType) PriceType() (PriceType, bool) {
	switch t {
	case TypeRealEstate:
		return PriceTypeSell, true
	case TypeRentedRealEstate, TypeHotel:
		return PriceTypeRent, true
	default:
		return "", false
	}
}

type PropertyStatus string

const (
	StatusAvailable PropertyStatus = "available"
	StatusRented    PropertyStatus = "rented"
	StatusSold      PropertyStatus = "sold"
	StatusInactive  PropertyStatus = "inactive"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusRented, StatusSold, StatusInactive:
		return true
	default:
		return false
	}
}

type LeaseTerm string

const (
	LeaseShortTerm LeaseTerm = "short-term"
	LeaseLongTerm  LeaseTerm = "long-term"
)

func (l LeaseTerm) Valid() bool {
	return l == LeaseShortTerm || l == LeaseLongTerm
}

// Property is the persisted listing document. Nullable attributes are pointers.
type Property struct {
	ID                    string         `json:"_id" bson:"-" gorm:"primaryKey;size:24"`
	Name                  string         `json:"name"`
	Description           *string        `json:"description"`
	Country               string         `json:"country"`
	State                 string         `json:"state"`
	City                  string         `json:"city"`
	OwnerID               string         `json:"ownerId" gorm:"index;size:24"`
	Images                []string       `json:"images" gorm:"serializer:json"`
	Status                PropertyStatus `json:"status"`
	Type                  PropertyType   `json:"type"`
	Category              string         `json:"category"`
	SellPrice             *float64       `json:"sellPrice"`
	RentPrice             *float64       `json:"rentPrice"`
	LeaseTerm             *LeaseTerm     `json:"leaseTerm"`
	RoomCount             *int           `json:"roomCount"`
	Bathrooms             *float64       `json:"bathrooms"`
	Bedrooms              *int           `json:"bedrooms"`
	YearBuilt             *int           `json:"yearBuilt"`
	LivingAreaSqft        *float64       `json:"livingAreaSqft"`
	PropertyTaxRate       *float64       `json:"propertyTaxRate"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             *time.Time     `json:"updatedAt"`
	TransactionIDs        []string       `json:"transactionIds" gorm:"serializer:json"`
	MaintenanceRequestIDs []string       `json:"maintenanceRequestIds" gorm:"serializer:json"`
	LeaseIDs              []string       `json:"leaseIds" gorm:"serializer:json"`
	BookingIDs            []string       `json:"bookingIds" gorm:"serializer:json"`
}

// DisplayName falls back to a short id based label for unnamed listings.
func (p *Property) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	id := p.ID
	if len(id) > 5 {
		id = id[len(id)-5:]
	}
	return "Property " + id
}

// CurrentPrice returns the price that is economically meaningful for the property type.
func (p *Property) CurrentPrice() (PriceType, float64, bool) {
	priceType, ok := p.Type.PriceType()
	if !ok {
		return "", 0, false
	}
	price := p.SellPrice
	if priceType == PriceTypeRent {
		price = p.RentPrice
	}
	if price == nil || *price == 0 {
		return priceType, 0, false
	}
	return priceType, *price, true
}

// PropertyPatch is a partial update. Nil fields are left untouched; identity,
// ownership and foreign key lists are not patchable.
type PropertyPatch struct {
	Name            *string
	Description     *string
	Country         *string
	State           *string
	City            *string
	Status          *PropertyStatus
	Type            *PropertyType
	Category        *string
	SellPrice       *float64
	RentPrice       *float64
	LeaseTerm       *LeaseTerm
	RoomCount       *int
	Bathrooms       *float64
	Bedrooms        *int
	YearBuilt       *int
	LivingAreaSqft  *float64
	PropertyTaxRate *float64
	Images          []string
}

// Apply copies every set field of the patch onto p.
func (pp PropertyPatch) Apply(p *Property) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = pp.Description
	}
	if pp.Country != nil {
		p.Country = *pp.Country
	}
	if pp.State != nil {
		p.State = *pp.State
	}
	if pp.City != nil {
		p.City = *pp.City
	}
	if pp.Status != nil {
		p.Status = *pp.Status
	}
	if pp.Type != nil {
		p.Type = *pp.Type
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.SellPrice != nil {
		p.SellPrice = pp.SellPrice
	}
	if pp.RentPrice != nil {
		p.RentPrice = pp.RentPrice
	}
	if pp.LeaseTerm != nil {
		p.LeaseTerm = pp.LeaseTerm
	}
	if pp.RoomCount != nil {
		p.RoomCount = pp.RoomCount
	}
	if pp.Bathrooms != nil {
		p.Bathrooms = pp.Bathrooms
	}
	if pp.Bedrooms != nil {
		p.Bedrooms = pp.Bedrooms
	}
	if pp.YearBuilt != nil {
		p.YearBuilt = pp.YearBuilt
	}
	if pp.LivingAreaSqft != nil {
		p.LivingAreaSqft = pp.LivingAreaSqft
	}
	if pp.PropertyTaxRate != nil {
		p.PropertyTaxRate = pp.PropertyTaxRate
	}
	if len(pp.Images) > 0 {
		p.Images = pp.Images
	}
}

// SearchFilters is a conjunctive property query. Empty fields are ignored.
// Field order is fixed so the JSON form doubles as a canonical cache key.
type SearchFilters struct {
	Country  string         `json:"country,omitempty" form:"country"`
	State    string         `json:"state,omitempty" form:"state"`
	City     string         `json:"city,omitempty" form:"city"`
	Status   PropertyStatus `json:"status,omitempty" form:"status"`
	Type     PropertyType   `json:"type,omitempty" form:"type"`
	Category string         `json:"category,omitempty" form:"category"`
}

// Matches evaluates the filters in memory: substring match ignoring case for
// free text fields, exact match for enumerated ones.
func (f SearchFilters) Matches(p *Property) bool {
	if !containsFold(p.Country, f.Country) ||
		!containsFold(p.State, f.State) ||
		!containsFold(p.City, f.City) ||
		!containsFold(p.Category, f.Category) {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	return true
}

func containsFold(value, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(substr))
}
