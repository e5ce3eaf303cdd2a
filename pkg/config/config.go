package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Store backends selectable via STORE_BACKEND.
const (
	BackendJSON     = "json"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	CORSAllowedOrigins []string

	// Store selection. The flat-file store is the default; Redis and
	// Postgres hold the same three JSON documents.
	StoreBackend string
	DataDir      string
	RedisURL     string

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDatabase string
	PostgresSSLMode  string

	// Session tokens. Login always issues one; enforcement on mutating
	// endpoints is opt-in.
	JWTSecret    string
	AuthRequired bool

	OverdueScanMinutes int
	RateLimitPerMinute int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	scanInterval, err := strconv.Atoi(getEnv("OVERDUE_SCAN_MINUTES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid OVERDUE_SCAN_MINUTES: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	backend := getEnv("STORE_BACKEND", BackendJSON)
	switch backend {
	case BackendJSON, BackendRedis, BackendPostgres:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", backend)
	}

	pgPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  port,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		StoreBackend:       backend,
		DataDir:            getEnv("DATA_DIR", "./data"),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		PostgresHost:       getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:       pgPort,
		PostgresUser:       getEnv("POSTGRES_USER", "taskhub"),
		PostgresPassword:   getEnv("POSTGRES_PASSWORD", "dev"),
		PostgresDatabase:   getEnv("POSTGRES_DB", "taskhub"),
		PostgresSSLMode:    getEnv("POSTGRES_SSLMODE", "disable"),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		AuthRequired:       boolEnv("AUTH_REQUIRED", false),
		OverdueScanMinutes: scanInterval,
		RateLimitPerMinute: rateLimit,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func boolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
