package routes

import (
	"logistics-live-tracking/internal/config"
	"logistics-live-tracking/internal/delivery/http/handler"
	"logistics-live-tracking/internal/infrastructure/database/postgres"
	"logistics-live-tracking/internal/logger"
	"logistics-live-tracking/internal/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config, db *postgres.DB, trackingHandler *handler.TrackingHandler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware in order: recovery, request ID, logging, security headers,
	// CORS, request size limit, general rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		trackingHandler.RegisterRoutes(v1)
	}

	router.GET("/ws/tracking", trackingHandler.ServeWS)

	logger.Info("All routes initialized")
	return router
}
