package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"pennybid/database"

	"github.com/caarlos0/env/v11"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`
	StoreDriver  string `env:"STORE_DRIVER" envDefault:"postgres"`

	// NATS server addresses (comma-separated). Empty keeps events in-process.
	NATSServers string `env:"NATS_SERVERS"`

	// Identity
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"720h"`

	// Auction defaults for new listings
	DefaultBidCost      int64 `env:"DEFAULT_BID_COST" envDefault:"50"`
	DefaultBidIncrement int64 `env:"DEFAULT_BID_INCREMENT" envDefault:"50"`
	DefaultResetSeconds int   `env:"DEFAULT_RESET_SECONDS" envDefault:"10"`
	MinTopUpAmount      int64 `env:"MIN_TOPUP_AMOUNT" envDefault:"100"`

	// Bidding engine
	BidTimeout       time.Duration `env:"BID_TIMEOUT" envDefault:"3s"`
	BidRatePerSecond float64       `env:"BID_RATE_PER_SECOND" envDefault:"0"`
	BidRateBurst     int           `env:"BID_RATE_BURST" envDefault:"5"`

	// Workers
	RefundPollInterval       time.Duration `env:"REFUND_POLL_INTERVAL" envDefault:"30s"`
	RefundRetryMaxElapsed    time.Duration `env:"REFUND_RETRY_MAX_ELAPSED" envDefault:"30s"`
	AuctionDiscoveryInterval time.Duration `env:"AUCTION_DISCOVERY_INTERVAL" envDefault:"5s"`

	// OpenTelemetry
	OTelEnabled              bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelServiceName          string `env:"OTEL_SERVICE_NAME" envDefault:"pennybid"`
	OTelExporterType         string `env:"OTEL_EXPORTER_TYPE" envDefault:"none"`
	OTelOTLPEndpoint         string `env:"OTEL_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelExportIntervalMillis int    `env:"OTEL_EXPORT_INTERVAL_MILLIS" envDefault:"10000"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
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

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// UseMemoryStore reports whether state lives in process memory
func (c *Config) UseMemoryStore() bool {
	return c.StoreDriver == StoreDriverMemory
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.OTelExporterType {
	case "console", "otlp", "none":
	default:
		return fmt.Errorf("unknown OTEL_EXPORTER_TYPE %q", c.OTelExporterType)
	}

	if c.DefaultBidCost <= 0 || c.DefaultBidIncrement <= 0 || c.DefaultResetSeconds <= 0 {
		return fmt.Errorf("auction defaults must be positive")
	}

	if c.Environment == "test" {
		return nil
	}

	if c.StoreDriver == StoreDriverPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		StoreDriver:              StoreDriverMemory,
		JWTSecret:                "test-secret",
		JWTTTL:                   time.Hour,
		DefaultBidCost:           50,
		DefaultBidIncrement:      50,
		DefaultResetSeconds:      10,
		MinTopUpAmount:           100,
		BidTimeout:               3 * time.Second,
		BidRateBurst:             5,
		RefundPollInterval:       time.Second,
		RefundRetryMaxElapsed:    time.Second,
		AuctionDiscoveryInterval: time.Second,
		OTelServiceName:          "pennybid-test",
		OTelExporterType:         "none",
		OTelExportIntervalMillis: 1000,
		Environment:              "test",
		LogLevel:                 "debug",
	}
}
