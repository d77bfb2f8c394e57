package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the gin engine with middleware, static uploads and routes.
func NewRouter(handler *Handler, allowOrigins []string, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger), CORS(allowOrigins))
	router.MaxMultipartMemory = maxImages * maxImageBytes

	router.Static("/"+publicPrefix, handler.uploadDir)
	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.Health)

	props := router.Group("/properties")
	{
		props.GET("", handler.GetAllProperties)
		props.GET("/search", handler.SearchProperties)
		props.GET("/owner/:ownerId", handler.GetPropertiesByOwner)
		props.GET("/recommendations", handler.GetRecommendations)
		props.POST("/recommendations/:id/apply", handler.ApplyRecommendation)
		props.POST("/create", handler.CreateProperty)
		props.POST("/predict", handler.PredictPrice)
		props.GET("/:id", handler.GetProperty)
		props.PUT("/:id", handler.UpdateProperty)
		props.DELETE("/:id", handler.DeleteProperty)
	}
}
