package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/achievement-minter/internal/api/middleware"
	"github.com/feral-file/achievement-minter/internal/ratelimit"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig, limiter ratelimit.Limiter) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		achievements := v1.Group("/achievements", middleware.Auth(authCfg))
		{
			// Manual trigger (authenticated, rate limited)
			achievements.POST("/mint-runs", middleware.RateLimit(limiter, "mint-runs"), handler.TriggerMintRun)
			achievements.GET("/mint-runs/last", handler.GetLastRun)
			achievements.GET("/backlog", handler.GetBacklog)
		}

		// Per-user achievement listing (public read access)
		v1.GET("/users/:user_id/achievements", handler.ListUserAchievements)
	}
}
