package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Tenant addressing
	BaseDomain string // root domain tenant subdomains hang off, e.g. "dzshops.com"
	Protocol   string // scheme used when building tenant-facing URLs
	LocalRoot  string // local-development root token, e.g. "localhost"

	// HTTP client
	HTTPTimeout time.Duration

	// Auth guard check against GoTrue. Tuned longer than HTTPTimeout to
	// tolerate slow mobile networks.
	AuthCheckTimeout time.Duration

	// Resilience
	MaxConcurrency int // upload bulkhead size

	// Storefront
	PageSize    int
	MaxOrderQty int

	// Observability
	OTLPEndpoint string

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	SupabaseJWTSecret  string

	// Vercel Blob
	BlobToken string
}

// Load reads configuration from environment variables with defaults.
// A .env file in the working directory is honored for local development
// but never overrides variables already set in the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BaseDomain: getEnv("BASE_DOMAIN", "localhost:8080"),
		Protocol:   getEnv("PROTOCOL", "http"),
		LocalRoot:  getEnv("LOCAL_ROOT", "localhost"),

		HTTPTimeout:      getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		AuthCheckTimeout: getEnvDuration("AUTH_CHECK_TIMEOUT", 12*time.Second),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 10),

		PageSize:    getEnvInt("PAGE_SIZE", 12),
		MaxOrderQty: getEnvInt("MAX_ORDER_QTY", 999),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:  getEnv("SUPABASE_JWT_SECRET", ""),

		BlobToken: getEnv("BLOB_READ_WRITE_TOKEN", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
