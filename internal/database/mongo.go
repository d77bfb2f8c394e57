package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"propvalue/server/internal/models"
)

const propertyCollection = "properties"

// propertyDocument is the BSON shape of a property. References are ObjectIDs.
type propertyDocument struct {
	ID                    primitive.ObjectID    `bson:"_id"`
	Name                  string                `bson:"name"`
	Description           *string               `bson:"description"`
	Country               string                `bson:"country"`
	State                 string                `bson:"state"`
	City                  string                `bson:"city"`
	OwnerID               primitive.ObjectID    `bson:"ownerId"`
	Images                []string              `bson:"images"`
	Status                models.PropertyStatus `bson:"status"`
	Type                  models.PropertyType   `bson:"type"`
	Category              string                `bson:"category"`
	SellPrice             *float64              `bson:"sellPrice"`
	RentPrice             *float64              `bson:"rentPrice"`
	LeaseTerm             *models.LeaseTerm     `bson:"leaseTerm"`
	RoomCount             *int                  `bson:"roomCount"`
	Bathrooms             *float64              `bson:"bathrooms"`
	Bedrooms              *int                  `bson:"bedrooms"`
	YearBuilt             *int                  `bson:"yearBuilt"`
	LivingAreaSqft        *float64              `bson:"livingAreaSqft"`
	PropertyTaxRate       *float64              `bson:"propertyTaxRate"`
	CreatedAt             time.Time             `bson:"createdAt"`
	UpdatedAt             *time.Time            `bson:"updatedAt"`
	TransactionIDs        []primitive.ObjectID  `bson:"transactionIds"`
	MaintenanceRequestIDs []primitive.ObjectID  `bson:"maintenanceRequestIds"`
	LeaseIDs              []primitive.ObjectID  `bson:"leaseIds"`
	BookingIDs            []primitive.ObjectID  `bson:"bookingIds"`
}

// MongoRepository stores properties in a MongoDB collection.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoRepository(ctx context.Context, uri, database string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &MongoRepository{
		client:     client,
		collection: client.Database(database).Collection(propertyCollection),
	}, nil
}

// EnsureIndexes creates the indexes used by owner listings and searches.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "type", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, property *models.Property) error {
	if property.ID == "" {
		property.ID = NewID()
	}
	doc, err := toDocument(property)
	if err != nil {
		return err
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.Property, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	var doc propertyDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query property: %w", err)
	}
	property := fromDocument(&doc)
	return &property, nil
}

func (r *MongoRepository) FindAll(ctx context.Context) ([]models.Property, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoRepository) FindByOwner(ctx context.Context, ownerID string) ([]models.Property, error) {
	oid, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []models.Property{}, nil
	}
	return r.find(ctx, bson.M{"ownerId": oid})
}

func (r *MongoRepository) Search(ctx context.Context, filters models.SearchFilters) ([]models.Property, error) {
	return r.find(ctx, searchFilter(filters))
}

func (r *MongoRepository) Update(ctx context.Context, property *models.Property) error {
	oid, err := primitive.ObjectIDFromHex(property.ID)
	if err != nil {
		return models.ErrNotFound
	}

	updatedAt := time.Now()
	if property.UpdatedAt != nil {
		updatedAt = *property.UpdatedAt
	}

	set := bson.M{
		"name":            property.Name,
		"description":     property.Description,
		"country":         property.Country,
		"state":           property.State,
		"city":            property.City,
		"images":          property.Images,
		"status":          property.Status,
		"type":            property.Type,
		"category":        property.Category,
		"sellPrice":       property.SellPrice,
		"rentPrice":       property.RentPrice,
		"leaseTerm":       property.LeaseTerm,
		"roomCount":       property.RoomCount,
		"bathrooms":       property.Bathrooms,
		"bedrooms":        property.Bedrooms,
		"yearBuilt":       property.YearBuilt,
		"livingAreaSqft":  property.LivingAreaSqft,
		"propertyTaxRate": property.PropertyTaxRate,
		"updatedAt":       updatedAt,
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]models.Property, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []propertyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}

	properties := make([]models.Property, 0, len(docs))
	for i := range docs {
		properties = append(properties, fromDocument(&docs[i]))
	}
	return properties, nil
}

// searchFilter builds a conjunctive query. User input is quoted so it matches
// literally rather than as a pattern.
func searchFilter(filters models.SearchFilters) bson.M {
	filter := bson.M{}
	addRegex := func(field, value string) {
		if value != "" {
			filter[field] = primitive.Regex{Pattern: regexp.QuoteMeta(value), Options: "i"}
		}
	}

	addRegex("country", filters.Country)
	addRegex("state", filters.State)
	addRegex("city", filters.City)
	addRegex("category", filters.Category)
	if filters.Status != "" {
		filter["status"] = filters.Status
	}
	if filters.Type != "" {
		filter["type"] = filters.Type
	}
	return filter
}

func toDocument(p *models.Property) (*propertyDocument, error) {
	id, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid property id %q", models.ErrValidation, p.ID)
	}
	ownerID, err := primitive.ObjectIDFromHex(p.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid owner id %q", models.ErrValidation, p.OwnerID)
	}

	return &propertyDocument{
		ID:                    id,
		Name:                  p.Name,
		Description:           p.Description,
		Country:               p.Country,
		State:                 p.State,
		City:                  p.City,
		OwnerID:               ownerID,
		Images:                nonNil(p.Images),
		Status:                p.Status,
		Type:                  p.Type,
		Category:              p.Category,
		SellPrice:             p.SellPrice,
		RentPrice:             p.RentPrice,
		LeaseTerm:             p.LeaseTerm,
		RoomCount:             p.RoomCount,
		Bathrooms:             p.Bathrooms,
		Bedrooms:              p.Bedrooms,
		YearBuilt:             p.YearBuilt,
		LivingAreaSqft:        p.LivingAreaSqft,
		PropertyTaxRate:       p.PropertyTaxRate,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
		TransactionIDs:        toObjectIDs(p.TransactionIDs),
		MaintenanceRequestIDs: toObjectIDs(p.MaintenanceRequestIDs),
		LeaseIDs:              toObjectIDs(p.LeaseIDs),
		BookingIDs:            toObjectIDs(p.BookingIDs),
	}, nil
}

func fromDocument(doc *propertyDocument) models.Property {
	return models.Property{
		ID:                    doc.ID.Hex(),
		Name:                  doc.Name,
		Description:           doc.Description,
		Country:               doc.Country,
		State:                 doc.State,
		City:                  doc.City,
		OwnerID:               doc.OwnerID.Hex(),
		Images:                nonNil(doc.Images),
		Status:                doc.Status,
		Type:                  doc.Type,
		Category:              doc.Category,
		SellPrice:             doc.SellPrice,
		RentPrice:             doc.RentPrice,
		LeaseTerm:             doc.LeaseTerm,
		RoomCount:             doc.RoomCount,
		Bathrooms:             doc.Bathrooms,
		Bedrooms:              doc.Bedrooms,
		YearBuilt:             doc.YearBuilt,
		LivingAreaSqft:        doc.LivingAreaSqft,
		PropertyTaxRate:       doc.PropertyTaxRate,
		CreatedAt:             doc.CreatedAt,
		UpdatedAt:             doc.UpdatedAt,
		TransactionIDs:        toHex(doc.TransactionIDs),
		MaintenanceRequestIDs: toHex(doc.MaintenanceRequestIDs),
		LeaseIDs:              toHex(doc.LeaseIDs),
		BookingIDs:            toHex(doc.BookingIDs),
	}
}

// toObjectIDs drops malformed references rather than failing the write.
func toObjectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func toHex(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
