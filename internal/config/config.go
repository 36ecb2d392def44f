package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selectable via STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type AppConfig struct {
	Port string

	// FetchInterval controls how often tracked forecasts are refreshed.
	FetchInterval time.Duration

	// HTTPTimeout applies to outbound provider calls.
	HTTPTimeout time.Duration

	// StoreBackend selects the tracking store implementation.
	StoreBackend string
	SQLitePath   string

	// OpenMeteoBaseURL overrides the provider endpoint (used in tests).
	OpenMeteoBaseURL string

	// GeocoderAPIKey enables coordinate-less city tracking when set.
	GeocoderAPIKey string

	AppEnv   string
	LogLevel string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	intervalStr := getenvDefault("FETCH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.StoreBackend = getenvDefault("STORE_BACKEND", BackendMemory)
	switch cfg.StoreBackend {
	case BackendMemory, BackendSQLite:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q", cfg.StoreBackend)
	}
	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "weather-tracker.db")

	cfg.OpenMeteoBaseURL = os.Getenv("OPENMETEO_BASE_URL")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
