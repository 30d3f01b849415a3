// Package config loads application configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full application configuration surface.
type Config struct {
	// Provider
	ProviderBaseURL    string
	ProviderAPIKey     string
	ProxyURL           string
	RateLimitPerMinute int
	MaxRetryCount      int
	RequestTimeout     time.Duration

	// Monitoring
	TickInterval      time.Duration
	InterRequestDelay time.Duration
	AlertThresholds   []float64
	DropThreshold     float64 // legacy single threshold
	MinMarketCap      float64
	MinLiquidity      float64

	// Collection
	MaxCandlesPerPair int
	CollectInterval   time.Duration

	// Storage
	PostgresDSN   string
	ClickHouseDSN string

	// Observability
	MetricsAddr string
}

// Load reads configuration from envPath (ignored when missing) and the
// process environment.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		// A missing .env file is fine; real deployments set env vars directly.
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		ProviderBaseURL:    getEnvString("PROVIDER_BASE_URL", "https://prod.ave-api.com"),
		ProviderAPIKey:     getEnvString("PROVIDER_API_KEY", ""),
		ProxyURL:           getEnvString("PROXY_URL", ""),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		MaxRetryCount:      getEnvInt("MAX_RETRY_COUNT", 3),
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,

		TickInterval:      time.Duration(getEnvInt("TICK_INTERVAL_MINUTES", 5)) * time.Minute,
		InterRequestDelay: time.Duration(getEnvFloat("INTER_REQUEST_DELAY_SECONDS", 1.0) * float64(time.Second)),
		AlertThresholds:   ParseThresholds(getEnvString("ALERT_THRESHOLDS", "70,80,90")),
		DropThreshold:     getEnvFloat("DROP_THRESHOLD_PERCENT", 0),
		MinMarketCap:      getEnvFloat("MIN_MONITOR_MARKET_CAP", 0),
		MinLiquidity:      getEnvFloat("MIN_MONITOR_LIQUIDITY", 0),

		MaxCandlesPerPair: getEnvInt("MAX_CANDLES_PER_PAIR", 200),
		CollectInterval:   time.Duration(getEnvInt("COLLECT_INTERVAL_MINUTES", 60)) * time.Minute,

		PostgresDSN:   getEnvString("POSTGRES_DSN", ""),
		ClickHouseDSN: getEnvString("CLICKHOUSE_DSN", ""),

		MetricsAddr: getEnvString("METRICS_ADDR", ":9090"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	if c.MaxCandlesPerPair <= 0 {
		return fmt.Errorf("MAX_CANDLES_PER_PAIR must be positive, got %d", c.MaxCandlesPerPair)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL_MINUTES must be positive")
	}
	if len(c.AlertThresholds) == 0 && c.DropThreshold <= 0 {
		return fmt.Errorf("no alert thresholds configured")
	}
	return nil
}

// ParseThresholds parses a comma-separated ladder, dropping malformed
// or out-of-range entries and returning it in ascending order.
func ParseThresholds(raw string) []float64 {
	parts := strings.Split(raw, ",")
	thresholds := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v <= 0 || v > 100 {
			continue
		}
		thresholds = append(thresholds, v)
	}
	sort.Float64s(thresholds)
	return thresholds
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
