package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires middleware and every route.
func NewRouter(h *RecommendHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), RequestID())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", RequestIDHeader}
	config.ExposeHeaders = []string{RequestIDHeader}
	r.Use(cors.New(config))

	r.POST("/recommend_jobs", h.RecommendForProfile)
	r.POST("/recommend-jobs", h.RecommendForPrompt)

	api := r.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)

		// Catalog Routes
		api.POST("/datasets", h.UploadDataset)
		api.POST("/datasets/recommend", h.RecommendFromCatalog)

		api.GET("/recommendations/history", h.History)
	}
	return r
}
