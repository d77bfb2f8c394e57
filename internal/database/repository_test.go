package database

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"propvalue/server/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func seedProperties() []*models.Property {
	owner := NewID()
	other := NewID()
	return []*models.Property{
		{
			Name: "Harbour view", Country: "Algeria", State: "Oran", City: "Oran",
			OwnerID: owner, Status: models.StatusAvailable, Type: models.TypeRealEstate,
			Category: "Apartment", SellPrice: floatPtr(200000),
			Images: []string{}, TransactionIDs: []string{},
		},
		{
			Name: "Casbah suites", Country: "Algeria", State: "Algiers", City: "Algiers",
			OwnerID: owner, Status: models.StatusRented, Type: models.TypeHotel,
			Category: "Boutique hotel", RentPrice: floatPtr(1200),
		},
		{
			Name: "Lakeside", Country: "USA", State: "Texas", City: "Austin",
			OwnerID: other, Status: models.StatusAvailable, Type: models.TypeRentedRealEstate,
			Category: "House", RentPrice: floatPtr(2500),
		},
	}
}

// repositoryContract runs the same behavioural checks against every backend.
func repositoryContract(t *testing.T, repo PropertyRepository) {
	ctx := context.Background()
	seeds := seedProperties()
	for i, p := range seeds {
		p.CreatedAt = time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Create(ctx, p))
		assert.True(t, IsValidID(p.ID))
	}

	t.Run("FindByID", func(t *testing.T) {
		got, err := repo.FindByID(ctx, seeds[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "Harbour view", got.Name)
		assert.Equal(t, 200000.0, *got.SellPrice)

		_, err = repo.FindByID(ctx, NewID())
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("FindAll", func(t *testing.T) {
		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("FindByOwner", func(t *testing.T) {
		owned, err := repo.FindByOwner(ctx, seeds[0].OwnerID)
		require.NoError(t, err)
		assert.Len(t, owned, 2)

		none, err := repo.FindByOwner(ctx, NewID())
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Search", func(t *testing.T) {
		tests := []struct {
			filters  models.SearchFilters
			expected []string
		}{
			{models.SearchFilters{Country: "alg"}, []string{"Harbour view", "Casbah suites"}},
			{models.SearchFilters{City: "AUSTIN"}, []string{"Lakeside"}},
			{models.SearchFilters{Category: "hotel"}, []string{"Casbah suites"}},
			{models.SearchFilters{Status: models.StatusAvailable}, []string{"Harbour view", "Lakeside"}},
			{models.SearchFilters{Type: models.TypeHotel, Country: "Algeria"}, []string{"Casbah suites"}},
			{models.SearchFilters{Type: models.TypeHotel, Country: "USA"}, nil},
			{models.SearchFilters{City: "Or%"}, nil},
		}

		for _, tt := range tests {
			t.Run(fmt.Sprintf("%+v", tt.filters), func(t *testing.T) {
				found, err := repo.Search(ctx, tt.filters)
				require.NoError(t, err)
				var names []string
				for _, p := range found {
					names = append(names, p.Name)
				}
				assert.ElementsMatch(t, tt.expected, names)
			})
		}
	})

	t.Run("Update keeps immutable fields", func(t *testing.T) {
		p, err := repo.FindByID(ctx, seeds[0].ID)
		require.NoError(t, err)

		originalOwner := p.OwnerID
		p.SellPrice = floatPtr(210000)
		p.OwnerID = NewID()
		require.NoError(t, repo.Update(ctx, p))

		got, err := repo.FindByID(ctx, seeds[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 210000.0, *got.SellPrice)
		assert.Equal(t, originalOwner, got.OwnerID)

		missing := *p
		missing.ID = NewID()
		assert.ErrorIs(t, repo.Update(ctx, &missing), models.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, seeds[2].ID))
		_, err := repo.FindByID(ctx, seeds[2].ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, seeds[2].ID), models.ErrNotFound)
	})
}

func TestMemoryRepository(t *testing.T) {
	repositoryContract(t, NewMemoryRepository())
}

func TestGormRepository(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	repo, err := NewGormRepository(dsn)
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.RunMigrations())
	repositoryContract(t, repo)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	p := &models.Property{OwnerID: NewID(), Images: []string{"uploads/a.png"}}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	got.Images[0] = "changed"

	again, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "uploads/a.png", again.Images[0])
}

func TestSearchFilter(t *testing.T) {
	filter := searchFilter(models.SearchFilters{
		City:   "St. Louis",
		Status: models.StatusSold,
	})

	assert.Len(t, filter, 2)
	assert.Equal(t, primitive.Regex{Pattern: `St\. Louis`, Options: "i"}, filter["city"])
	assert.Equal(t, models.StatusSold, filter["status"])
}

func TestDocumentRoundTrip(t *testing.T) {
	p := &models.Property{
		ID:             NewID(),
		OwnerID:        NewID(),
		Name:           "Loft",
		BookingIDs:     []string{NewID(), "not-an-id"},
		TransactionIDs: nil,
	}

	doc, err := toDocument(p)
	require.NoError(t, err)
	assert.Len(t, doc.BookingIDs, 1)
	assert.NotNil(t, doc.Images)

	back := fromDocument(doc)
	assert.Equal(t, p.ID, back.ID)
	assert.Equal(t, p.OwnerID, back.OwnerID)
	assert.Equal(t, []string{p.BookingIDs[0]}, back.BookingIDs)
	assert.Equal(t, []string{}, back.TransactionIDs)

	_, err = toDocument(&models.Property{ID: p.ID, OwnerID: "bad"})
	assert.ErrorIs(t, err, models.ErrValidation)
}
