package http

import (
	"github.com/gin-gonic/gin"

	"github.com/partlens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		resolution := v1.Group("/resolution")
		{
			resolution.POST("/resolve", handler.Resolve)
			resolution.POST("/normalize", handler.Normalize)
			resolution.GET("/sources", handler.Sources)
		}
	}

	return router
}
