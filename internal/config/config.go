// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverBolt     = "bolt"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// LogFile, when set, also writes logs to a rotating file at this path.
	LogFile string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// StoreDriver selects the trip store: postgres, mongo or bolt.
	StoreDriver string

	// DatabaseURL is the Postgres connection string. Required for postgres.
	DatabaseURL string

	// MongoURI is the MongoDB connection string. Required for mongo.
	MongoURI string
	// MongoDatabase defaults to "globetrotter".
	MongoDatabase string

	// BoltPath is the bolt database file. Defaults to "globetrotter.db".
	BoltPath string

	// JWTSecret signs and verifies bearer tokens. Required.
	JWTSecret string

	// RedisAddr, when set, keeps idempotency keys in Redis instead of memory.
	RedisAddr string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// SessionTTL is how long an idle draft or itinerary session lives.
	// Defaults to 30m.
	SessionTTL time.Duration

	// IdempotencyTTL is how long a finished Idempotency-Key is remembered.
	// Defaults to 24h.
	IdempotencyTTL time.Duration
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set and any
// values that could not be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getEnv("MONGO_DATABASE", "globetrotter"),
		BoltPath:      getEnv("BOLT_PATH", "globetrotter.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
	}

	var missing, invalid []string

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case DriverMongo:
		if cfg.MongoURI == "" {
			missing = append(missing, "MONGO_URI")
		}
	case DriverBolt:
	default:
		invalid = append(invalid, "STORE_DRIVER (want postgres, mongo or bolt)")
	}

	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	var err error
	if cfg.MaxBodyBytes, err = strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64); err != nil || cfg.MaxBodyBytes <= 0 {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}
	if cfg.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", "30m")); err != nil || cfg.SessionTTL <= 0 {
		invalid = append(invalid, "SESSION_TTL")
	}
	if cfg.IdempotencyTTL, err = time.ParseDuration(getEnv("IDEMPOTENCY_TTL", "24h")); err != nil || cfg.IdempotencyTTL <= 0 {
		invalid = append(invalid, "IDEMPOTENCY_TTL")
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "required environment variables not set: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		problems = append(problems, "invalid environment variables: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		return Config{}, errors.New(strings.Join(problems, "; "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
