package api

import (
	"context"
	"time"

	"github.com/RishiKendai/textmatch/internal/config"
	"github.com/RishiKendai/textmatch/internal/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(ctx context.Context, cfg *config.Config, handler *Handler) *gin.Engine {
	router := gin.Default()

	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, int(cfg.RateLimitRPS*2))
	go rateLimiter.RunSweeper(ctx, 10*time.Minute, time.Hour)

	router.Use(metrics.GinMiddleware())
	router.Use(ErrorHandlerMiddleware())

	// Health endpoint (no auth)
	router.GET("/health", handler.Health)

	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/analyze", handler.Analyze)
		api.POST("/analyze/upload", handler.AnalyzeUpload)
		api.POST("/compare", handler.Compare)

		api.POST("/documents", handler.UploadDocument)
		api.GET("/documents/:id", handler.GetDocument)

		api.POST("/jobs", handler.CreateJob)
		api.GET("/jobs/:id", handler.GetJob)
	}

	return router
}
