package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string

	// Database (optional; feedback and stats endpoints need it)
	DatabaseURL string

	// Shared verdict cache (optional redis; in-memory fallback otherwise)
	RedisURL        string
	VerdictCacheTTL time.Duration

	// OIDC bearer auth (optional; API is open when unset)
	OIDCIssuer   string
	OIDCAudience string

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Personal cache
	PersonalCachePath string
	PersonalCacheSize int

	// Analysis providers
	LocalModelURL       string
	LocalModelName      string
	RemoteModelURL      string
	RemoteModelName     string
	RemoteAPIKey        string
	RemoteRPS           float64
	LocalTimeout        time.Duration
	RemoteTimeout       time.Duration
	ConfidenceThreshold float64

	// Feeds
	FeedCacheDir        string
	FeedRefreshInterval time.Duration
	FeedCacheMaxAge     time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:        getEnv("ENV", "development"),
		ServerAddr: getEnv("SERVER_ADDR", ":8000"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL:        getEnv("REDIS_URL", ""),
		VerdictCacheTTL: getDuration("VERDICT_CACHE_TTL", 15*time.Minute),

		OIDCIssuer:   getEnv("OIDC_ISSUER", ""),
		OIDCAudience: getEnv("OIDC_AUDIENCE", ""),

		CORSOrigins: getEnv("CORS_ORIGINS", ""),

		PersonalCachePath: getEnv("PERSONAL_CACHE_PATH", "data/personal_whitelist.json"),
		PersonalCacheSize: getInt("PERSONAL_CACHE_SIZE", 30),

		LocalModelURL:       getEnv("LOCAL_MODEL_URL", "http://localhost:11434"),
		LocalModelName:      getEnv("LOCAL_MODEL_NAME", "gemma3:4b"),
		RemoteModelURL:      getEnv("REMOTE_MODEL_URL", "https://generativelanguage.googleapis.com"),
		RemoteModelName:     getEnv("REMOTE_MODEL_NAME", "gemini-2.0-flash"),
		RemoteAPIKey:        getEnv("REMOTE_API_KEY", ""),
		RemoteRPS:           getFloat("REMOTE_RPS", 2),
		LocalTimeout:        getDuration("LOCAL_TIMEOUT", 1500*time.Millisecond),
		RemoteTimeout:       getDuration("REMOTE_TIMEOUT", 5*time.Second),
		ConfidenceThreshold: getFloat("CONFIDENCE_THRESHOLD", 0.8),

		FeedCacheDir:        getEnv("FEED_CACHE_DIR", "data/feeds"),
		FeedRefreshInterval: getDuration("FEED_REFRESH_INTERVAL", 6*time.Hour),
		FeedCacheMaxAge:     getDuration("FEED_CACHE_MAX_AGE", 30*24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}
