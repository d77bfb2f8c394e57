package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GetRecommendations runs a valuation pass over the caller's properties.
func (h *Handler) GetRecommendations(c *gin.Context) {
	ownerID, err := h.auth.Subject(credential(c))
	if err != nil {
		h.respondError(c, err, "Failed to authenticate")
		return
	}

	set, err := h.recommender.Recommend(c.Request.Context(), ownerID)
	if err != nil {
		h.respondError(c, err, "Failed to generate recommendations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Recommendations generated successfully",
		"ownerId":         set.OwnerID(),
		"recommendations": set.Items(),
	})
}

func (h *Handler) ApplyRecommendation(c *gin.Context) {
	var req applyPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price is required"})
		return
	}

	property, err := h.recommender.ApplyPrice(c.Request.Context(), credential(c), c.Param("id"), *req.Price)
	if err != nil {
		h.respondError(c, err, "Failed to apply price")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Price updated successfully",
		"property": property,
	})
}

// PredictPrice forwards already encoded features to the price model.
func (h *Handler) PredictPrice(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.complete() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	predicted, err := h.predictor.Predict(c.Request.Context(), req.toVector())
	if err != nil {
		h.respondError(c, err, "Error during prediction")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id":      c.GetString(requestIDKey),
		"predicted_price": predicted,
	}).Debug("Prediction served")

	c.JSON(http.StatusOK, gin.H{
		"message":        "Prediction successful",
		"predictedPrice": predicted,
	})
}
