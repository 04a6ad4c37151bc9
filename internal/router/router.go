package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/englishgpt-practice/internal/config"
	"github.com/stemsi/englishgpt-practice/internal/handler"
	"github.com/stemsi/englishgpt-practice/internal/logger"
	"github.com/stemsi/englishgpt-practice/internal/middleware"
	"github.com/stemsi/englishgpt-practice/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Practice *handler.PracticeHandler
	Result   *handler.ResultHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work owned by middlewares.
func SetupRouter(ctx context.Context, handlers *Handlers, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(logger.Middleware(log, response.ContextKeyRequestID))
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	createLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute)

	// ─── 1. Practice API ───────────────────────────────────────────────
	api := router.Group("/api/v1/practice")
	{
		api.GET("/categories", middleware.CacheControl(60), handlers.Practice.ListCategories)
		api.POST("/sessions", createLimiter.Middleware(), handlers.Practice.CreateSession)

		api.GET("/results", handlers.Result.ListResults)
		api.GET("/results/stream", handlers.Result.StreamResults)
		api.GET("/stats", handlers.Result.Stats)
	}

	// ─── 2. Live Session (in-memory state, never cached) ───────────────
	session := api.Group("/sessions/:session_id")
	session.Use(middleware.NoStore())
	{
		session.GET("", handlers.Practice.GetSession)
		session.DELETE("", handlers.Practice.DeleteSession)
		session.GET("/exercise", handlers.Practice.GetExercise)
		session.GET("/result", handlers.Practice.GetResult)

		session.POST("/start", handlers.Practice.Start)
		session.POST("/pause", handlers.Practice.Pause)
		session.POST("/resume", handlers.Practice.Resume)
		session.POST("/submit", handlers.Practice.Submit)
		session.POST("/reset", handlers.Practice.Reset)
		session.POST("/review", handlers.Practice.Review)
		session.POST("/next-category", handlers.Practice.NextCategory)

		session.PUT("/category", handlers.Practice.SelectCategory)
		session.PUT("/answers", handlers.Practice.RecordAnswer)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/practice/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	return router
}
