package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propvalue/server/internal/models"
	"propvalue/server/internal/pricing"
	"propvalue/server/internal/prediction"
	"propvalue/server/internal/properties"
)

// PropertyService is the gateway the handlers delegate property I/O to.
type PropertyService interface {
	Create(ctx context.Context, credential string, draft *models.Property) (*models.Property, error)
	GetAll(ctx context.Context) ([]models.Property, error)
	GetByID(ctx context.Context, id string) (*models.Property, error)
	GetByOwner(ctx context.Context, ownerID string) ([]models.Property, error)
	Search(ctx context.Context, filters models.SearchFilters) ([]models.Property, error)
	Update(ctx context.Context, credential, id string, patch models.PropertyPatch) (*models.Property, error)
	Delete(ctx context.Context, credential, id string) error
}

type Recommender interface {
	Recommend(ctx context.Context, ownerID string) (*pricing.RecommendationSet, error)
	ApplyPrice(ctx context.Context, credential, propertyID string, newPrice float64) (*models.Property, error)
}

type Handler struct {
	properties  PropertyService
	recommender Recommender
	predictor   prediction.Predictor
	auth        properties.Authenticator
	uploadDir   string
	logger      *logrus.Logger
}

func NewHandler(props PropertyService, recommender Recommender, predictor prediction.Predictor, auth properties.Authenticator, uploadDir string, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		properties:  props,
		recommender: recommender,
		predictor:   predictor,
		auth:        auth,
		uploadDir:   uploadDir,
		logger:      logger,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var req propertyRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Warn("Failed to parse property body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	images, err := h.saveImages(c)
	if err != nil {
		h.respondError(c, err, "Failed to save images")
		return
	}

	draft := req.toProperty()
	draft.Images = images

	property, err := h.properties.Create(c.Request.Context(), credential(c), draft)
	if err != nil {
		h.removeImages(images)
		h.respondError(c, err, "Failed to create property")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Property created successfully",
		"property": property,
	})
}

func (h *Handler) GetAllProperties(c *gin.Context) {
	props, err := h.properties.GetAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to get properties")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Properties retrieved successfully",
		"properties": props,
	})
}

func (h *Handler) GetPropertiesByOwner(c *gin.Context) {
	props, err := h.properties.GetByOwner(c.Request.Context(), c.Param("ownerId"))
	if err != nil {
		h.respondError(c, err, "Failed to get owner properties")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Properties retrieved successfully",
		"properties": props,
	})
}

func (h *Handler) GetProperty(c *gin.Context) {
	property, err := h.properties.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get property")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Property retrieved successfully",
		"property": property,
	})
}

func (h *Handler) SearchProperties(c *gin.Context) {
	var filters models.SearchFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search parameters"})
		return
	}
	allowEmpty, _ := strconv.ParseBool(c.Query("allowEmpty"))

	props, err := h.properties.Search(c.Request.Context(), filters)
	if err != nil && !(allowEmpty && errors.Is(err, models.ErrNotFound)) {
		h.respondError(c, err, "Failed to search properties")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Properties retrieved successfully",
		"properties": props,
	})
}

func (h *Handler) UpdateProperty(c *gin.Context) {
	var req propertyRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Warn("Failed to parse property body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	images, err := h.saveImages(c)
	if err != nil {
		h.respondError(c, err, "Failed to save images")
		return
	}

	patch := req.toPatch()
	patch.Images = images

	property, err := h.properties.Update(c.Request.Context(), credential(c), c.Param("id"), patch)
	if err != nil {
		h.removeImages(images)
		h.respondError(c, err, "Failed to update property")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Property updated successfully",
		"property": property,
	})
}

func (h *Handler) DeleteProperty(c *gin.Context) {
	id := c.Param("id")
	if err := h.properties.Delete(c.Request.Context(), credential(c), id); err != nil {
		h.respondError(c, err, "Failed to delete property")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Property deleted successfully",
		"deletedId": id,
	})
}

// credential returns the raw Authorization header; the authenticator strips
// an optional bearer prefix.
func credential(c *gin.Context) string {
	return c.GetHeader("Authorization")
}

// respondError maps domain errors to status codes. Unexpected errors are
// logged and answered with the generic fallback message.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error(fallback)
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": clientMessage(err)})
}

var statusSentinels = []error{
	models.ErrValidation,
	models.ErrUnauthorized,
	models.ErrForbidden,
	models.ErrNotFound,
}

// clientMessage drops the leading sentinel text from a wrapped error, so
// "not found: Property not found" is reported as "Property not found".
func clientMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range statusSentinels {
		if trimmed := strings.TrimPrefix(msg, sentinel.Error()+": "); trimmed != msg {
			return trimmed
		}
	}
	return msg
}
