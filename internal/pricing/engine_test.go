package pricing

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"propvalue/server/internal/auth"
	"propvalue/server/internal/database"
	"propvalue/server/internal/models"
	"propvalue/server/internal/properties"
)

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(ctx context.Context, vector models.FeatureVector) (float64, error) {
	args := m.Called(ctx, vector)
	return args.Get(0).(float64), args.Error(1)
}

type failingSource struct{}

func (failingSource) GetByOwner(context.Context, string) ([]models.Property, error) {
	return nil, errors.New("connection refused")
}

func (failingSource) GetByID(context.Context, string) (*models.Property, error) {
	return nil, models.ErrNotFound
}

func (failingSource) Update(context.Context, string, string, models.PropertyPatch) (*models.Property, error) {
	return nil, models.ErrNotFound
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func builtIn(year int) interface{} {
	return mock.MatchedBy(func(v models.FeatureVector) bool { return v.YearBuilt == year })
}

type engineFixture struct {
	engine    *Engine
	service   *properties.Service
	predictor *MockPredictor
	jwt       *auth.JWTManager
	owner     string
}

func newEngineFixture(t *testing.T, workers int) *engineFixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	jwtManager, err := auth.NewJWTManager("test-secret-key-for-testing-only", time.Hour)
	require.NoError(t, err)

	service := properties.NewService(database.NewMemoryRepository(), nil, jwtManager, properties.Options{}, logger)
	predictor := new(MockPredictor)

	return &engineFixture{
		engine:    NewEngine(service, predictor, workers, logger),
		service:   service,
		predictor: predictor,
		jwt:       jwtManager,
		owner:     database.NewID(),
	}
}

func (f *engineFixture) add(t *testing.T, p models.Property) *models.Property {
	t.Helper()
	if p.Name == "" {
		p.Name = "Unit"
	}
	p.OwnerID = f.owner
	p.Country = "Algeria"
	p.State = "Oran"
	p.City = "Oran"
	p.Category = "apartment"
	if p.Status == "" {
		p.Status = models.StatusAvailable
	}
	created, err := f.service.Create(context.Background(), "", &p)
	require.NoError(t, err)
	return created
}

func (f *engineFixture) at(month time.Month) {
	f.engine.now = func() time.Time { return time.Date(2024, month, 15, 12, 0, 0, 0, time.UTC) }
}

func TestRecommend_SellPrice(t *testing.T) {
	f := newEngineFixture(t, 2)
	created := f.add(t, models.Property{
		Name:      "Sea View",
		Type:      models.TypeRealEstate,
		SellPrice: floatPtr(200000),
		YearBuilt: intPtr(2001),
		Bedrooms:  intPtr(3),
	})
	f.predictor.On("Predict", mock.Anything, builtIn(2001)).Return(230000.0, nil)

	set, err := f.engine.Recommend(context.Background(), f.owner)
	require.NoError(t, err)

	items := set.Items()
	require.Len(t, items, 1)
	rec := items[0]
	assert.Equal(t, created.ID, rec.PropertyID)
	assert.Equal(t, "Sea View", rec.PropertyName)
	assert.Equal(t, models.PriceTypeSell, rec.PriceType)
	assert.Equal(t, 200000.0, rec.CurrentPrice)
	assert.Equal(t, 230000.0, rec.RecommendedPrice)
	assert.Equal(t, 79, rec.Confidence)
	assert.Equal(t, "High demand in this area suggests potential for increased pricing", rec.Reason)
	f.predictor.AssertExpectations(t)
}

func TestRecommend_SeasonalRent(t *testing.T) {
	tests := []struct {
		month time.Month
		want  float64
	}{
		{time.July, 1100},
		{time.June, 1100},
		{time.September, 1100},
		{time.January, 1000},
		{time.October, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			f := newEngineFixture(t, 1)
			f.at(tt.month)
			f.add(t, models.Property{
				Type:      models.TypeHotel,
				RentPrice: floatPtr(800),
				YearBuilt: intPtr(1990),
			})
			f.predictor.On("Predict", mock.Anything, builtIn(1990)).Return(100000.0, nil)

			set, err := f.engine.Recommend(context.Background(), f.owner)
			require.NoError(t, err)

			items := set.Items()
			require.Len(t, items, 1)
			assert.Equal(t, models.PriceTypeRent, items[0].PriceType)
			assert.Equal(t, tt.want, items[0].RecommendedPrice)
			assert.Equal(t, 800.0, items[0].CurrentPrice)
		})
	}
}

func TestRecommend_MaterialityFilter(t *testing.T) {
	f := newEngineFixture(t, 2)
	f.add(t, models.Property{Name: "Small move", Type: models.TypeRealEstate, SellPrice: floatPtr(100000), YearBuilt: intPtr(2000)})
	kept := f.add(t, models.Property{Name: "Big move", Type: models.TypeRealEstate, SellPrice: floatPtr(100000), YearBuilt: intPtr(2010)})
	f.predictor.On("Predict", mock.Anything, builtIn(2000)).Return(104000.0, nil)
	f.predictor.On("Predict", mock.Anything, builtIn(2010)).Return(106000.0, nil)

	set, err := f.engine.Recommend(context.Background(), f.owner)
	require.NoError(t, err)

	items := set.Items()
	require.Len(t, items, 1)
	assert.Equal(t, kept.ID, items[0].PropertyID)
	assert.Equal(t, "Slight increase recommended based on market trends", items[0].Reason)
}

func TestRecommend_SkipsUnpricedProperties(t *testing.T) {
	f := newEngineFixture(t, 1)
	f.add(t, models.Property{Name: "No price", Type: models.TypeRealEstate, YearBuilt: intPtr(2000)})
	f.add(t, models.Property{Name: "Wrong field", Type: models.TypeRentedRealEstate, SellPrice: floatPtr(5000), YearBuilt: intPtr(2001)})

	set, err := f.engine.Recommend(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	f.predictor.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestRecommend_IsolatesPredictionFailures(t *testing.T) {
	f := newEngineFixture(t, 3)
	first := f.add(t, models.Property{Name: "A", Type: models.TypeRealEstate, SellPrice: floatPtr(100000), YearBuilt: intPtr(2001)})
	f.add(t, models.Property{Name: "B", Type: models.TypeRealEstate, SellPrice: floatPtr(100000), YearBuilt: intPtr(2002)})
	third := f.add(t, models.Property{Name: "C", Type: models.TypeRealEstate, SellPrice: floatPtr(100000), YearBuilt: intPtr(2003)})

	f.predictor.On("Predict", mock.Anything, builtIn(2001)).Return(150000.0, nil)
	f.predictor.On("Predict", mock.Anything, builtIn(2002)).Return(0.0, models.ErrUpstream)
	f.predictor.On("Predict", mock.Anything, builtIn(2003)).Return(80000.0, nil)

	set, err := f.engine.Recommend(context.Background(), f.owner)
	require.NoError(t, err)

	items := set.Items()
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].PropertyID)
	assert.Equal(t, third.ID, items[1].PropertyID)
	assert.Equal(t, "Occupancy rates may improve with a more competitive price", items[1].Reason)
}

func TestRecommend_FetchFailureIsFatal(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	predictor := new(MockPredictor)

	engine := NewEngine(failingSource{}, predictor, 2, logger)
	set, err := engine.Recommend(context.Background(), database.NewID())
	assert.Error(t, err)
	assert.Nil(t, set)
	predictor.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestRecommend_OwnerWithoutProperties(t *testing.T) {
	f := newEngineFixture(t, 2)

	set, err := f.engine.Recommend(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, f.owner, set.OwnerID())
}

func TestRecommendationSet_Apply(t *testing.T) {
	f := newEngineFixture(t, 1)
	created := f.add(t, models.Property{Type: models.TypeRealEstate, SellPrice: floatPtr(200000), YearBuilt: intPtr(2001)})
	f.predictor.On("Predict", mock.Anything, builtIn(2001)).Return(230000.4, nil)

	set, err := f.engine.Recommend(context.Background(), f.owner)
	require.NoError(t, err)

	token, err := f.jwt.GenerateToken(f.owner, "owner")
	require.NoError(t, err)
	require.NoError(t, set.Apply(context.Background(), token, created.ID))

	items := set.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 230000.0, items[0].CurrentPrice)
	assert.Equal(t, 230000.0, items[0].RecommendedPrice)
	assert.Equal(t, AppliedReason, items[0].Reason)

	stored, err := f.service.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SellPrice)
	assert.Equal(t, 230000.0, *stored.SellPrice)
}

func TestRecommendationSet_ApplyWithoutRollback(t *testing.T) {
	f := newEngineFixture(t, 1)
	created := f.add(t, models.Property{Type: models.TypeRentedRealEstate, RentPrice: floatPtr(500), YearBuilt: intPtr(2001)})
	f.at(time.January)
	f.predictor.On("Predict", mock.Anything, builtIn(2001)).Return(90000.0, nil)

	set, err := f.engine.Recommend(context.Background(), f.owner)
	require.NoError(t, err)

	stranger, err := f.jwt.GenerateToken(database.NewID(), "owner")
	require.NoError(t, err)
	err = set.Apply(context.Background(), stranger, created.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	items := set.Items()
	require.Len(t, items, 1)
	assert.Equal(t, AppliedReason, items[0].Reason)

	stored, err := f.service.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, *stored.RentPrice)

	err = set.Apply(context.Background(), stranger, database.NewID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRecommendationSet_Ignore(t *testing.T) {
	f := newEngineFixture(t, 2)
	first := f.add(t, models.Property{Type: models.TypeRealEstate, SellPrice: floatPtr(100000), YearBuilt: intPtr(2001)})
	second := f.add(t, models.Property{Type: models.TypeRealEstate, SellPrice: floatPtr(100000), YearBuilt: intPtr(2002)})
	f.predictor.On("Predict", mock.Anything, mock.Anything).Return(120000.0, nil)

	set, err := f.engine.Recommend(context.Background(), f.owner)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())

	assert.True(t, set.Ignore(first.ID))
	assert.False(t, set.Ignore(first.ID))

	items := set.Items()
	require.Len(t, items, 1)
	assert.Equal(t, second.ID, items[0].PropertyID)

	stored, err := f.service.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, *stored.SellPrice)
}

func TestApplyPrice_Validation(t *testing.T) {
	f := newEngineFixture(t, 1)
	created := f.add(t, models.Property{Type: models.TypeRealEstate, SellPrice: floatPtr(100000)})
	token, err := f.jwt.GenerateToken(f.owner, "owner")
	require.NoError(t, err)

	_, err = f.engine.ApplyPrice(context.Background(), token, created.ID, 0)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.engine.ApplyPrice(context.Background(), token, database.NewID(), 100)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
