// Package config loads WealthWise configuration from environment variables and an optional .env file.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/gurnoorsh/wealthwise/internal/db"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   db.Config
	Encryption EncryptionConfig
	Feeds      FeedsConfig
	Retry      RetryConfig
	Scheduler  SchedulerConfig
	Snapshot   SnapshotConfig
	Redis      RedisConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Port string
}

// EncryptionConfig holds the base64 encoded 32-byte cost basis key.
type EncryptionConfig struct {
	Key string
}

// FeedsConfig holds the upstream price provider settings.
type FeedsConfig struct {
	AlphaVantageBaseURL string
	AlphaVantageAPIKey  string
	CoinGeckoBaseURL    string
	CoinGeckoAPIKey     string
	Timeout             time.Duration
}

// RetryConfig bounds retries of transport failures against the price feeds.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// SchedulerConfig holds the daily snapshot run settings.
type SchedulerConfig struct {
	Enabled     bool
	Hour        int
	Minute      int
	Timezone    string
	PacingDelay time.Duration
	Jitter      time.Duration
}

type SnapshotConfig struct {
	DedupeDaily bool
}

// RedisConfig configures the latest-price cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PriceTTL time.Duration
}

type LoggingConfig struct {
	Env   string
	Level string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: *db.NewConfig(),
		Encryption: EncryptionConfig{
			Key: getEnv("AES_ENCRYPTION_KEY", ""),
		},
		Feeds: FeedsConfig{
			AlphaVantageBaseURL: getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			AlphaVantageAPIKey:  getEnv("ALPHA_VANTAGE_API_KEY", ""),
			CoinGeckoBaseURL:    getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			CoinGeckoAPIKey:     getEnv("COINGECKO_API_KEY", ""),
			Timeout:             getEnvAsDuration("PRICE_FEED_TIMEOUT", 10*time.Second),
		},
		Retry: RetryConfig{
			MaxAttempts:  getEnvAsInt("PRICE_FETCH_MAX_ATTEMPTS", 3),
			InitialDelay: getEnvAsDuration("PRICE_FETCH_INITIAL_BACKOFF", time.Second),
			MaxDelay:     getEnvAsDuration("PRICE_FETCH_MAX_BACKOFF", 10*time.Second),
		},
		Scheduler: SchedulerConfig{
			Enabled:     getEnvAsBool("SCHEDULER_ENABLED", true),
			Hour:        getEnvAsInt("SCHEDULER_HOUR", 2),
			Minute:      getEnvAsInt("SCHEDULER_MINUTE", 0),
			Timezone:    getEnv("SCHEDULER_TIMEZONE", "UTC"),
			PacingDelay: getEnvAsDuration("SCHEDULER_PACING_DELAY", time.Second),
			Jitter:      getEnvAsDuration("SCHEDULER_JITTER", 250*time.Millisecond),
		},
		Snapshot: SnapshotConfig{
			DedupeDaily: getEnvAsBool("SNAPSHOT_DEDUPE_DAILY", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PriceTTL: getEnvAsDuration("PRICE_CACHE_TTL", 15*time.Minute),
		},
		Logging: LoggingConfig{
			Env:   firstNonEmpty(os.Getenv("LOG_ENV"), os.Getenv("APP_ENV")),
			Level: getEnv("LOG_LEVEL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required secrets and value ranges.
func (c *Config) Validate() error {
	if c.Encryption.Key == "" {
		return fmt.Errorf("AES_ENCRYPTION_KEY is required")
	}
	key, err := base64.StdEncoding.DecodeString(c.Encryption.Key)
	if err != nil {
		return fmt.Errorf("AES_ENCRYPTION_KEY must be base64: %w", err)
	}
	if len(key) != 32 {
		return fmt.Errorf("AES_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	if c.Scheduler.Hour < 0 || c.Scheduler.Hour > 23 {
		return fmt.Errorf("SCHEDULER_HOUR must be between 0 and 23")
	}
	if c.Scheduler.Minute < 0 || c.Scheduler.Minute > 59 {
		return fmt.Errorf("SCHEDULER_MINUTE must be between 0 and 59")
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE: %w", err)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("PRICE_FETCH_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// Location returns the scheduler time zone; Validate guarantees it loads.
func (s SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
