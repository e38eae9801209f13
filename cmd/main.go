package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/inkpress/inkpress/internal/ai"
	"github.com/inkpress/inkpress/internal/api"
	"github.com/inkpress/inkpress/internal/archive"
	"github.com/inkpress/inkpress/internal/cache"
	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/db"
	"github.com/inkpress/inkpress/internal/logger"
	"github.com/inkpress/inkpress/internal/middleware"
	"github.com/inkpress/inkpress/internal/repository"
)

func main() {
	// Load and validate configuration
	cfg := config.Load()

	// Initialize logger
	logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: "stdout",
		Pretty: cfg.Env == "development",
	})

	log := logger.Get()
	log.Info().Msg("Starting application...")

	// Open the database pool once; repositories receive it explicitly.
	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Initialize Redis cache (optional; the API works without it)
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, caching disabled")
		redisClient = nil
	} else {
		defer func() {
			log.Info().Msg("Closing Redis client...")
			if err := redisClient.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing Redis client")
			}
		}()
	}

	// Initialize the archive exporter (optional, needs R2 credentials).
	// Keep the interface value nil when disabled; a typed nil would pass
	// the handlers' nil checks.
	var archiver api.Archiver
	r2, err := archive.New(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize archive client")
	}
	if r2 == nil {
		log.Info().Msg("Archive endpoint not configured, exports disabled")
	} else {
		archiver = r2
	}

	// Text generation backend
	gemini := ai.NewGeminiClient(cfg.AIApiKey, cfg.AIModel, cfg.AITimeout)
	orchestrator := ai.NewOrchestrator(gemini, cfg.AIMaxTokens)

	handlers := api.NewHandlers(
		cfg,
		repository.NewArticleRepository(conn),
		repository.NewTaxonomyRepository(conn),
		orchestrator,
		redisClient,
		archiver,
	)

	// Create Fiber app with custom config
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: middleware.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New()) // Recover from panics
	app.Use(middleware.RequestLogger())

	// Setup API routes
	api.SetupRoutes(app, handlers, cfg)

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Create a deadline for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Shutdown the server
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
