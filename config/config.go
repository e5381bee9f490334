// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config aggregates runtime configuration for the server.
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Logger       LoggerConfig
	Compensation CompensationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Port        int
	CORSOrigins []string
	SeedOnStart bool
}

// DatabaseConfig holds the SQLite location.
type DatabaseConfig struct {
	Path string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// CompensationConfig holds the fallbacks applied when reference data is missing.
type CompensationConfig struct {
	DefaultCurrency string
	FallbackTaxRate decimal.Decimal
	PageSize        int

	// RecalcInterval is how often stored salaries are recalculated; zero disables it.
	RecalcInterval time.Duration
}

// Load reads configuration from a .env file, if present, and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	fallbackRate, err := decimal.NewFromString(getEnv("FALLBACK_TAX_RATE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid FALLBACK_TAX_RATE: %w", err)
	}
	if fallbackRate.IsNegative() || fallbackRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("invalid FALLBACK_TAX_RATE: %s is outside 0..100", fallbackRate)
	}

	recalc, err := time.ParseDuration(getEnv("RECALC_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECALC_INTERVAL: %w", err)
	}

	currency := strings.ToUpper(strings.TrimSpace(getEnv("DEFAULT_CURRENCY", "USD")))
	if len(currency) != 3 {
		return nil, fmt.Errorf("invalid DEFAULT_CURRENCY: %q", currency)
	}

	return &Config{
		App: AppConfig{
			Port:        port,
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")),
			SeedOnStart: getEnvAsBool("SEED_ON_START", false),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "compensation.db"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Compensation: CompensationConfig{
			DefaultCurrency: currency,
			FallbackTaxRate: fallbackRate,
			PageSize:        getEnvAsInt("PAGE_SIZE", 20),
			RecalcInterval:  recalc,
		},
	}, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf(":%d", a.Port)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
