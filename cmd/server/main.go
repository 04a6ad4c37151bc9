package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/englishgpt-practice/internal/config"
	"github.com/stemsi/englishgpt-practice/internal/database"
	"github.com/stemsi/englishgpt-practice/internal/handler"
	"github.com/stemsi/englishgpt-practice/internal/logger"
	"github.com/stemsi/englishgpt-practice/internal/practice"
	"github.com/stemsi/englishgpt-practice/internal/repository"
	"github.com/stemsi/englishgpt-practice/internal/router"
	"github.com/stemsi/englishgpt-practice/internal/service"
	"github.com/stemsi/englishgpt-practice/internal/validator"
	"github.com/stemsi/englishgpt-practice/internal/worker"
)

const janitorInterval = time.Minute

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Int("session_seconds", cfg.SessionDurationSeconds).
		Strs("category_cycle", cfg.CategoryCycle).
		Msg("Starting practice server")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	exerciseRepo := repository.NewExerciseRepository(pool)
	resultRepo := repository.NewResultRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	contentService := service.NewContentService(exerciseRepo, rdb, cfg.ContentCacheTTL, log)
	resultPublisher := service.NewResultPublisher(rdb, log)
	resultService := service.NewResultService(resultRepo)
	practiceService := service.NewPracticeService(contentService, resultPublisher, log,
		service.WithIdleTTL(cfg.SessionIdleTTL),
		service.WithSessionOptions(
			practice.WithDuration(cfg.SessionDurationSeconds),
			practice.WithCategoryCycle(cfg.CategoryCycle),
		),
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Practice: handler.NewPracticeHandler(practiceService, contentService, log),
		Result:   handler.NewResultHandler(rdb, resultService, log),
		WS:       handler.NewWSHandler(practiceService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	resultWorker := worker.NewResultWorker(resultRepo, rdb, log)

	workers.Add(2)
	go func() {
		defer workers.Done()
		resultWorker.Start(workerCtx)
	}()
	go func() {
		defer workers.Done()
		practiceService.RunJanitor(workerCtx, janitorInterval)
	}()

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every category into Redis before accepting traffic.
	if err := contentService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop live sessions. Sessions already graded have queued their results.
	practiceService.Shutdown()

	// 3. Stop background workers and wait for the results queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
