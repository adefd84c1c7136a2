package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"

	"treasurytracker/internal/currency"
)

// Config holds application configuration. It is built once by Load and handed
// to the collaborators that need it; nothing reads it from package state.
type Config struct {
	// Server
	Env  string
	Port string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	// JWT
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	// Pipeline endpoints (external status driver)
	PipelineAPIKey string

	// Portfolio
	Currency         string
	Location         *time.Location
	OverdueGraceDays int
	SummaryCacheTTL  time.Duration

	// Auth rate limiting
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
}

// Load loads configuration from the environment, reading a .env file first
// when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "treasury"),
		DBPassword: getEnv("DB_PASSWORD", "treasury"),
		DBName:     getEnv("DB_NAME", "treasury"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBPath:     getEnv("DB_PATH", "treasury.db"),

		JWTSecret:          getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		AccessTokenExpiry:  getDuration("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
		RefreshTokenExpiry: getDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),

		PipelineAPIKey: os.Getenv("PIPELINE_API_KEY"),

		Currency:         strings.ToUpper(getEnv("CURRENCY", money.USD)),
		OverdueGraceDays: getInt("OVERDUE_GRACE_DAYS", 7),
		SummaryCacheTTL:  getDuration("SUMMARY_CACHE_TTL", 5*time.Minute),

		AuthRateLimitRPS:   getFloat("AUTH_RATE_LIMIT_RPS", 1),
		AuthRateLimitBurst: getInt("AUTH_RATE_LIMIT_BURST", 10),
	}

	if !currency.Known(cfg.Currency) {
		return nil, fmt.Errorf("unsupported CURRENCY %q", cfg.Currency)
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (use postgres or sqlite)", cfg.DBDriver)
	}

	if cfg.OverdueGraceDays < 0 {
		return nil, fmt.Errorf("OVERDUE_GRACE_DAYS must not be negative")
	}

	return cfg, nil
}

// PostgresURL returns the connection URL understood by golang-migrate.
func (c *Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %g\n", key, raw, defaultValue)
		return defaultValue
	}
	return f
}
