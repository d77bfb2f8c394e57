package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"propvalue/server/internal/models"
)

// Predictor returns a sale price estimate for an encoded property.
type Predictor interface {
	Predict(ctx context.Context, vector models.FeatureVector) (float64, error)
}

// Client talks to the external price model over HTTP. It never retries.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// predictRequest is the body expected by POST /predict. The living area key
// contains spaces because the model was trained on that column name.
type predictRequest struct {
	HomeStatus      int     `json:"homeStatus"`
	HomeType        int     `json:"homeType"`
	City            int     `json:"city"`
	State           int     `json:"state"`
	YearBuilt       int     `json:"yearBuilt"`
	LivingArea      float64 `json:"livingArea in sqft"`
	Bathrooms       float64 `json:"bathrooms"`
	Bedrooms        int     `json:"bedrooms"`
	PropertyTaxRate float64 `json:"propertyTaxRate"`
}

type predictResponse struct {
	PredictedPrice *float64 `json:"predicted_price"`
	Error          string   `json:"error"`
}

// NewClient creates a prediction client. A ratePerSecond of zero or less disables throttling.
func NewClient(baseURL string, ratePerSecond float64, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		limiter: limiter,
		logger:  logger,
	}
}

func (c *Client) Predict(ctx context.Context, vector models.FeatureVector) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}

	payload, err := json.Marshal(predictRequest{
		HomeStatus:      vector.HomeStatus,
		HomeType:        vector.HomeType,
		City:            vector.City,
		State:           vector.State,
		YearBuilt:       vector.YearBuilt,
		LivingArea:      vector.LivingAreaSqft,
		Bathrooms:       vector.Bathrooms,
		Bedrooms:        vector.Bedrooms,
		PropertyTaxRate: vector.PropertyTaxRate,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal prediction payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("Prediction request failed")
		return 0, fmt.Errorf("%w: request failed: %v", models.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read response: %v", models.ErrUpstream, err)
	}

	var result predictResponse
	if resp.StatusCode != http.StatusOK {
		_ = json.Unmarshal(body, &result)
		c.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"error":  result.Error,
		}).Error("Prediction service returned an error")
		return 0, fmt.Errorf("%w: status %d: %s", models.ErrUpstream, resp.StatusCode, result.Error)
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("%w: failed to parse response: %v", models.ErrUpstream, err)
	}
	if result.PredictedPrice == nil {
		return 0, fmt.Errorf("%w: response has no predicted_price", models.ErrUpstream)
	}

	c.logger.WithFields(logrus.Fields{
		"home_type":       vector.HomeType,
		"city":            vector.City,
		"predicted_price": *result.PredictedPrice,
	}).Debug("Received price prediction")

	return *result.PredictedPrice, nil
}
