// Package config loads application configuration from the environment,
// with .env support for development.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port          string
	Env           string // "development" or "production"
	CORSOrigins   string
	DatabaseURL   string // empty selects the SQLite store
	SQLitePath    string
	RedisURL      string // empty disables the deadline timer cache
	SweepInterval time.Duration
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is merged in first, so
// local development needs no exported variables.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          envOrDefault("PORT", "8000"),
		Env:           envOrDefault("ENV", "development"),
		CORSOrigins:   envOrDefault("CORS_ORIGINS", "http://localhost:5173"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    envOrDefault("SQLITE_PATH", "lupus.db"),
		RedisURL:      os.Getenv("REDIS_URL"),
		SweepInterval: durationOrDefault("SWEEP_INTERVAL", 10*time.Second),
	}
}

// Production reports whether the server runs with production settings
// (secure cookies, no console color).
func (c *Config) Production() bool {
	return c.Env == "production"
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
