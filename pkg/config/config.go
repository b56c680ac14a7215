package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string
	Fetch     FetchConfig
	Coto      CotoConfig
}

type FetchConfig struct {
	Mode      string // "http" or "browser"
	Timeout   time.Duration
	UserAgent string
}

type CotoConfig struct {
	BaseURL       string
	StaticURL     string
	CatalogAPIURL string
	BranchID      string
}

// Load reads an optional .env file and then the environment. Variables
// already present in the environment win over .env entries.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnvOrDefault("PORT", "9090"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
		Fetch: FetchConfig{
			Mode:      getEnvOrDefault("FETCH_MODE", "http"),
			Timeout:   getDurationOrDefault("HTTP_TIMEOUT", 20*time.Second),
			UserAgent: os.Getenv("USER_AGENT"),
		},
		Coto: CotoConfig{
			BaseURL:       os.Getenv("COTO_BASE_URL"),
			StaticURL:     os.Getenv("COTO_STATIC_URL"),
			CatalogAPIURL: os.Getenv("COTO_CATALOG_API_URL"),
			BranchID:      os.Getenv("COTO_BRANCH_ID"),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return d
}
