// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// catalog endpoints, timeouts, and reply-cache settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Discord Bot Configuration
	DiscordToken string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Catalog Configuration
	SparqlEndpoint string // SPARQL endpoint for the structured catalogs
	ArchiveBaseURL string // Base URL of the Digital Archive (scrape fallback)
	CoursesBaseURL string // Base URL of the course pages (liveness probes)

	// Seed Cache Configuration
	SeedPath string // Local JSON seed file, used unless R2 is enabled

	// HTTP Client Configuration
	CatalogTimeout  time.Duration
	FetchMaxRetries int
	FetchMinDelay   time.Duration // Minimum delay between outbound catalog requests

	// Liveness Configuration
	LivenessTimeout    time.Duration
	LivenessRetries    int
	LivenessRetryDelay time.Duration

	// Bot Configuration (embedded)
	Bot BotConfig

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Better Stack Configuration
	BetterStackToken    string
	BetterStackEndpoint string

	// Sentry Configuration
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
	SentryRelease     string
	SentrySampleRate  float64

	// R2 Seed Source (optional)
	R2 R2Config
}

// BotConfig holds bot-specific configuration
type BotConfig struct {
	CommandName        string // Lookup command name without the "!" prefix (default: "modulename")
	MaxCodesPerMessage int    // Maximum codes resolved per message (default: 5)
	ReplyCacheSize     int    // Tracked trigger messages for edit reconciliation (default: 1000)
	ReplySuffix        string // Fixed notice appended to every reply
}

// R2Config holds the optional R2 object-storage seed source.
type R2Config struct {
	Enabled     bool
	Endpoint    string // e.g. https://account-id.r2.cloudflarestorage.com
	AccessKeyID string
	SecretKey   string
	BucketName  string
	SeedKey     string // Object key; ".zst" suffix enables zstd decompression
}

// DefaultReplySuffix is the retirement notice appended to every reply.
const DefaultReplySuffix = "\nNote: !codes are being retired. Please use /oulookup, or skip !" +
	" and right-click/long-touch a message → Apps → OU Lookup."

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// Discord Bot Configuration
		DiscordToken: getEnv("DISCORD_BOT_TOKEN", ""),

		// Server Configuration
		Port:            getEnv("PORT", "10000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", GracefulShutdown),

		// Catalog Configuration
		SparqlEndpoint: getEnv("SPARQL_ENDPOINT", "http://data.open.ac.uk/sparql"),
		ArchiveBaseURL: getEnv("ARCHIVE_BASE_URL", "http://www.open.ac.uk"),
		CoursesBaseURL: getEnv("COURSES_BASE_URL", "http://www.open.ac.uk/courses"),

		// Seed Cache Configuration
		SeedPath: getEnv("SEED_CACHE_PATH", "cache.json"),

		// HTTP Client Configuration
		CatalogTimeout:  getDurationEnv("CATALOG_TIMEOUT", CatalogRequest),
		FetchMaxRetries: getIntEnv("FETCH_MAX_RETRIES", 2),
		FetchMinDelay:   getDurationEnv("FETCH_MIN_DELAY", 100*time.Millisecond),

		// Liveness Configuration
		LivenessTimeout:    getDurationEnv("LIVENESS_TIMEOUT", LivenessRequest),
		LivenessRetries:    getIntEnv("LIVENESS_RETRIES", 2),
		LivenessRetryDelay: getDurationEnv("LIVENESS_RETRY_DELAY", LivenessRetryDelay),

		// Bot Configuration
		Bot: BotConfig{
			CommandName:        getEnv("COMMAND_NAME", "modulename"),
			MaxCodesPerMessage: getIntEnv("MAX_CODES_PER_MESSAGE", 5),
			ReplyCacheSize:     getIntEnv("REPLY_CACHE_SIZE", 1000),
			ReplySuffix:        getEnv("REPLY_SUFFIX", DefaultReplySuffix),
		},

		// Metrics Authentication
		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		// Better Stack Configuration
		BetterStackToken:    getEnv("BETTERSTACK_TOKEN", ""),
		BetterStackEndpoint: getEnv("BETTERSTACK_ENDPOINT", ""),

		// Sentry Configuration
		SentryToken:       getEnv("SENTRY_TOKEN", ""),
		SentryHost:        getEnv("SENTRY_HOST", "errors.betterstack.com"),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "production"),
		SentryRelease:     getEnv("SENTRY_RELEASE", ""),
		SentrySampleRate:  getFloatEnv("SENTRY_SAMPLE_RATE", 1.0),

		// R2 Seed Source
		R2: R2Config{
			Enabled:     getBoolEnv("R2_ENABLED", false),
			Endpoint:    getEnv("R2_ENDPOINT", ""),
			AccessKeyID: getEnv("R2_ACCESS_KEY_ID", ""),
			SecretKey:   getEnv("R2_SECRET_ACCESS_KEY", ""),
			BucketName:  getEnv("R2_BUCKET_NAME", ""),
			SeedKey:     getEnv("R2_SEED_KEY", "cache.json.zst"),
		},
	}

	// Token may live in a local config file instead of the environment
	if cfg.DiscordToken == "" {
		cfg.DiscordToken = tokenFromFile(getEnv("DISCORD_CONFIG_FILE", "config.json"))
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.DiscordToken == "" {
		errs = append(errs, errors.New("DISCORD_BOT_TOKEN is required (env var or config.json)"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.CatalogTimeout <= 0 {
		errs = append(errs, fmt.Errorf("CATALOG_TIMEOUT must be positive, got %v", c.CatalogTimeout))
	}
	if c.LivenessRetries < 0 {
		errs = append(errs, fmt.Errorf("LIVENESS_RETRIES cannot be negative, got %d", c.LivenessRetries))
	}
	if c.FetchMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("FETCH_MAX_RETRIES cannot be negative, got %d", c.FetchMaxRetries))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bot config: %w", err))
	}
	if c.R2.Enabled {
		if c.R2.Endpoint == "" || c.R2.AccessKeyID == "" || c.R2.SecretKey == "" || c.R2.BucketName == "" {
			errs = append(errs, errors.New("R2_ENDPOINT, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET_NAME are required when R2_ENABLED is set"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks bot-specific configuration values.
func (b *BotConfig) Validate() error {
	var errs []error

	if b.CommandName == "" {
		errs = append(errs, errors.New("COMMAND_NAME is required"))
	}
	if b.MaxCodesPerMessage <= 0 {
		errs = append(errs, fmt.Errorf("MAX_CODES_PER_MESSAGE must be positive, got %d", b.MaxCodesPerMessage))
	}
	if b.ReplyCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("REPLY_CACHE_SIZE must be positive, got %d", b.ReplyCacheSize))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// tokenFromFile reads {"token": "..."} from a local JSON config file.
// Returns empty string if the file is missing or malformed.
func tokenFromFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var parsed struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return ""
	}
	return parsed.Token
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
