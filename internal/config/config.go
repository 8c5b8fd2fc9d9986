package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendSQLite3  = "sqlite3"
	BackendPostgres = "postgres"
)

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	Units              string
	Lang               string

	// HTTPTimeout bounds each outbound provider call.
	HTTPTimeout time.Duration

	// BreakerMaxFailures is the number of consecutive provider failures
	// that opens the circuit breaker.
	BreakerMaxFailures int

	// HistoryLimit caps the number of recent searches kept.
	HistoryLimit int

	StoreBackend string
	StorePath    string // sqlite file path
	DatabaseURL  string // postgres connection string

	// RefreshInterval controls how often the displayed city is re-fetched (0 = disabled).
	RefreshInterval time.Duration

	Port string

	TelegramToken string
	TelegramDebug bool
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = strings.TrimRight(getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"), "/")
	cfg.Units = getenvDefault("OPENWEATHER_UNITS", "metric")
	cfg.Lang = getenvDefault("OPENWEATHER_LANG", "es")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.BreakerMaxFailures = getenvInt("BREAKER_MAX_FAILURES", 5)

	cfg.HistoryLimit = getenvInt("HISTORY_LIMIT", 10)
	if cfg.HistoryLimit <= 0 {
		return nil, fmt.Errorf("invalid HISTORY_LIMIT: must be greater than zero")
	}

	cfg.StoreBackend = strings.ToLower(getenvDefault("STORE_BACKEND", BackendSQLite))
	switch cfg.StoreBackend {
	case BackendMemory, BackendSQLite, BackendSQLite3:
	case BackendPostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	cfg.StorePath = getenvDefault("STORE_PATH", "city-weather.db")

	refresh, err := time.ParseDuration(getenvDefault("REFRESH_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = refresh

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramDebug = getenvBool("TELEGRAM_DEBUG", false)

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
