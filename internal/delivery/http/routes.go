package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/crwatch/backend/config"
)

// SetupRouter creates and configures the Gin router.
// metrics may be nil, in which case /metrics is not served.
func SetupRouter(cfg *config.Config, handler *Handler, metrics *Metrics, logger zerolog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware. Recovery sits inside the logger and metrics so a
	// panicking request is still logged and counted as a 500.
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	if metrics != nil {
		router.Use(metrics.Middleware())
	}
	router.Use(RecoveryMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)
	if metrics != nil {
		router.GET("/metrics", metrics.Handler())
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	{
		match := v1.Group("/match")
		{
			match.POST("", handler.Match)
			match.POST("/url", handler.MatchURL)
			match.POST("/explain", handler.Explain)
		}

		v1.GET("/dataset", handler.Dataset)
	}

	return router
}
