package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-tracker/internal/api/http"
	"github.com/i474232898/weather-tracker/internal/config"
	"github.com/i474232898/weather-tracker/internal/geo"
	"github.com/i474232898/weather-tracker/internal/logging"
	"github.com/i474232898/weather-tracker/internal/scheduler"
	"github.com/i474232898/weather-tracker/internal/store"
	"github.com/i474232898/weather-tracker/internal/weather"
	"github.com/i474232898/weather-tracker/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slogger := logging.New(cfg.AppEnv, logging.ParseLevel(cfg.LogLevel))

	// Tracking store: in-memory by default, SQLite when configured.
	var trackStore weather.Store
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		sqlStore, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite store: %v", err)
		}
		defer sqlStore.Close()
		trackStore = sqlStore
	default:
		trackStore = store.NewMemoryStore()
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewOpenMeteoProvider(httpClient, cfg.OpenMeteoBaseURL)

	// Geocoding is optional; without a key cities need explicit coordinates.
	var geocoder weather.Geocoder
	if g := geo.NewGoogleGeocoder(cfg.GeocoderAPIKey); g != nil {
		geocoder = g
	}

	service := weather.NewService(trackStore, provider, geocoder, slogger)

	// Scheduler that periodically refreshes tracked forecasts.
	sched := scheduler.New(service, cfg.FetchInterval, slogger)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-tracker",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-tracker",
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slogger.Error("fiber server stopped", "error", err)
		}
	}()
	slogger.Info("listening", "port", cfg.Port, "store", cfg.StoreBackend)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slogger.Error("error during shutdown", "error", err)
	}
}
