package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"rifa/database"
	"rifa/domain/entities"

	"github.com/govalues/decimal"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordEnabled bool
	DiscordToken   string
	GuildID        string // Guild for command registration; empty registers globally

	// HTTP API configuration
	HTTPEnabled bool
	HTTPAddr    string

	// Database configuration (optional: empty disables the purchase ledger)
	DatabaseURL  string
	DatabaseName string

	// NATS configuration (optional: empty keeps events in-process)
	NATSServers string

	// Raffle defaults applied to every new session
	RafflePrice          decimal.Decimal
	RaffleTotalNumbers   int
	RaffleTitle          string
	RaffleDescription    string
	RaffleImages         []string
	RaffleDrawDate       *time.Time
	SeedPurchasedNumbers []int

	// Payment flow timings
	PaymentTimeout         time.Duration
	PaymentTickInterval    time.Duration
	PaymentProcessingDelay time.Duration
	PaymentReturnDelay     time.Duration

	// Session housekeeping
	SessionIdleTimeout     time.Duration
	SessionJanitorInterval time.Duration

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // console, otlp, none
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	// Logging
	LogLevel  string
	LogFormat string // text or json

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup

	loadDotEnvOnce sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		LoadDotEnv()

		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// LoadDotEnv reads a .env file from the working directory once, if one exists.
// Variables already present in the environment win.
func LoadDotEnv() {
	loadDotEnvOnce.Do(func() {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		if err := godotenv.Load(); err != nil {
			log.Warnf("dotenv: failed to load .env: %v", err)
		}
	})
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// LedgerEnabled reports whether a database has been configured for the purchase ledger
func (c *Config) LedgerEnabled() bool {
	return c.DatabaseURL != ""
}

// NATSEnabled reports whether domain events should be mirrored to NATS
func (c *Config) NATSEnabled() bool {
	return c.NATSServers != ""
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := defaults()

	config.DiscordEnabled = getEnvBool("DISCORD_ENABLED", true)
	config.DiscordToken = os.Getenv("DISCORD_TOKEN")
	config.GuildID = os.Getenv("GUILD_ID")

	config.HTTPEnabled = getEnvBool("HTTP_ENABLED", true)
	config.HTTPAddr = getEnvWithDefault("HTTP_ADDR", config.HTTPAddr)

	config.DatabaseURL = os.Getenv("DATABASE_URL")
	config.DatabaseName = os.Getenv("DATABASE_NAME")
	config.NATSServers = os.Getenv("NATS_SERVERS")

	config.RaffleTitle = getEnvWithDefault("RAFFLE_TITLE", config.RaffleTitle)
	config.RaffleDescription = getEnvWithDefault("RAFFLE_DESCRIPTION", config.RaffleDescription)

	if price := os.Getenv("RAFFLE_PRICE"); price != "" {
		parsed, err := decimal.Parse(price)
		if err != nil {
			return nil, fmt.Errorf("invalid RAFFLE_PRICE %q: %w", price, err)
		}
		config.RafflePrice = parsed
	}
	if total := os.Getenv("RAFFLE_TOTAL_NUMBERS"); total != "" {
		parsed, err := strconv.Atoi(total)
		if err != nil {
			return nil, fmt.Errorf("invalid RAFFLE_TOTAL_NUMBERS %q: %w", total, err)
		}
		config.RaffleTotalNumbers = parsed
	}
	if images := os.Getenv("RAFFLE_IMAGES"); images != "" {
		config.RaffleImages = splitList(images)
	}
	if drawDate := os.Getenv("RAFFLE_DRAW_DATE"); drawDate != "" {
		parsed, err := time.Parse(time.RFC3339, drawDate)
		if err != nil {
			return nil, fmt.Errorf("invalid RAFFLE_DRAW_DATE %q: %w", drawDate, err)
		}
		config.RaffleDrawDate = &parsed
	}
	if seeds, ok := os.LookupEnv("RAFFLE_SEED_PURCHASED"); ok {
		config.SeedPurchasedNumbers = nil
		for _, s := range splitList(seeds) {
			n, err := strconv.Atoi(s)
			if err != nil {
				log.Warnf("Ignoring invalid seed number %q", s)
				continue
			}
			config.SeedPurchasedNumbers = append(config.SeedPurchasedNumbers, n)
		}
	}

	var err error
	if config.PaymentTimeout, err = getEnvDuration("PAYMENT_TIMEOUT", config.PaymentTimeout); err != nil {
		return nil, err
	}
	if config.PaymentProcessingDelay, err = getEnvDuration("PAYMENT_PROCESSING_DELAY", config.PaymentProcessingDelay); err != nil {
		return nil, err
	}
	if config.PaymentReturnDelay, err = getEnvDuration("PAYMENT_RETURN_DELAY", config.PaymentReturnDelay); err != nil {
		return nil, err
	}
	if config.SessionIdleTimeout, err = getEnvDuration("SESSION_IDLE_TIMEOUT", config.SessionIdleTimeout); err != nil {
		return nil, err
	}
	if config.SessionJanitorInterval, err = getEnvDuration("SESSION_JANITOR_INTERVAL", config.SessionJanitorInterval); err != nil {
		return nil, err
	}

	config.OTelEnabled = getEnvBool("OTEL_ENABLED", false)
	config.OTelExporterType = getEnvWithDefault("OTEL_EXPORTER_TYPE", config.OTelExporterType)
	config.OTelOTLPEndpoint = getEnvWithDefault("OTEL_OTLP_ENDPOINT", config.OTelOTLPEndpoint)
	config.OTelServiceName = getEnvWithDefault("OTEL_SERVICE_NAME", config.OTelServiceName)
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil && parsed > 0 {
			config.OTelExportIntervalMillis = parsed
		}
	}

	config.LogLevel = getEnvWithDefault("LOG_LEVEL", config.LogLevel)
	config.LogFormat = getEnvWithDefault("LOG_FORMAT", config.LogFormat)
	config.Environment = getEnvWithDefault("ENVIRONMENT", config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks required settings and value ranges
func (c *Config) Validate() error {
	if c.Environment != "test" && c.DiscordEnabled && c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required (set DISCORD_ENABLED=false to run the HTTP API only)")
	}
	if !c.RafflePrice.IsPos() {
		return fmt.Errorf("RAFFLE_PRICE must be positive, got %s", c.RafflePrice)
	}
	if c.RaffleTotalNumbers <= 0 {
		return fmt.Errorf("RAFFLE_TOTAL_NUMBERS must be positive, got %d", c.RaffleTotalNumbers)
	}
	if c.RaffleTotalNumbers > entities.MaxTotalNumbers {
		return fmt.Errorf("RAFFLE_TOTAL_NUMBERS must be at most %d, got %d", entities.MaxTotalNumbers, c.RaffleTotalNumbers)
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.PaymentTimeout <= 0 {
		return fmt.Errorf("PAYMENT_TIMEOUT must be positive, got %s", c.PaymentTimeout)
	}
	return nil
}

// defaults returns the configuration used when nothing is overridden
func defaults() *Config {
	return &Config{
		DiscordEnabled:           true,
		HTTPEnabled:              true,
		HTTPAddr:                 ":8080",
		RafflePrice:              decimal.MustNew(10, 0),
		RaffleTotalNumbers:       1000,
		RaffleTitle:              "iPhone 15 Pro Max 256GB",
		RaffleDescription:        "Concorra a um iPhone 15 Pro Max novinho! Escolha seus números da sorte e boa sorte!",
		SeedPurchasedNumbers:     []int{3, 7, 15, 22, 45, 67, 89},
		PaymentTimeout:           10 * time.Minute,
		PaymentTickInterval:      time.Second,
		PaymentProcessingDelay:   3 * time.Second,
		PaymentReturnDelay:       2 * time.Second,
		SessionIdleTimeout:       time.Hour,
		SessionJanitorInterval:   10 * time.Minute,
		OTelExporterType:         "console",
		OTelOTLPEndpoint:         "localhost:4317",
		OTelServiceName:          "rifa",
		OTelExportIntervalMillis: 30000,
		LogLevel:                 "info",
		LogFormat:                "text",
		Environment:              "development",
	}
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Warnf("Invalid boolean for %s: %q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests.
// Timings are shortened so payment flows complete within a test run.
func NewTestConfig() *Config {
	cfg := defaults()
	cfg.Environment = "test"
	cfg.DiscordEnabled = false
	cfg.DiscordToken = "test-token"
	cfg.RaffleTotalNumbers = 100
	cfg.PaymentTimeout = 200 * time.Millisecond
	cfg.PaymentTickInterval = 20 * time.Millisecond
	cfg.PaymentProcessingDelay = 30 * time.Millisecond
	cfg.PaymentReturnDelay = 20 * time.Millisecond
	return cfg
}
