package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Logging     LoggingConfig    `toml:"logging"`
	Storage     StorageConfig    `toml:"storage"`
	Scenarios   ScenariosConfig  `toml:"scenarios"`
	MarketData  MarketDataConfig `toml:"marketdata"`
	Gateway     GatewayConfig    `toml:"gateway"`
	Throttle    ThrottleConfig   `toml:"throttle"`
	Precalc     PrecalcConfig    `toml:"precalc"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// StorageConfig locates the flat-file cache layers
type StorageConfig struct {
	DataDir string `toml:"data_dir"` // bond/rate cache files plus calculations/ subdirectory
}

// ScenariosConfig locates the rate-scenario definition files
type ScenariosConfig struct {
	Dir string `toml:"dir"` // Directory containing scenario definition files (TOML)
}

// MarketDataConfig configures the upstream feeds
type MarketDataConfig struct {
	BondsURL     string `toml:"bonds_url"`
	RatesURL     string `toml:"rates_url"`
	RateLimit    int    `toml:"rate_limit"`     // requests per second
	BondCacheTTL string `toml:"bond_cache_ttl"` // e.g. "1h"
	RateCacheTTL string `toml:"rate_cache_ttl"` // e.g. "6h"
}

// GatewayConfig configures the resilience wrapper around upstream calls
type GatewayConfig struct {
	CallTimeout      string `toml:"call_timeout"`      // per-attempt timeout, e.g. "15s"
	MaxAttempts      int    `toml:"max_attempts"`      // total attempts per call
	InitialBackoff   string `toml:"initial_backoff"`   // e.g. "1s"
	MaxBackoff       string `toml:"max_backoff"`       // e.g. "10s"
	FailureThreshold int    `toml:"failure_threshold"` // consecutive failures before the breaker opens
	ResetTimeout     string `toml:"reset_timeout"`     // open-state duration before probing, e.g. "30s"
}

// ThrottleConfig configures request-flood protection
type ThrottleConfig struct {
	GlobalConcurrent   int `toml:"global_concurrent"`   // in-flight ceiling across all endpoints (0 = unlimited)
	EndpointConcurrent int `toml:"endpoint_concurrent"` // in-flight ceiling per endpoint (0 = unlimited)
	ClientLimit        int `toml:"client_limit"`        // requests per client per window (0 = disabled)
	Window             int `toml:"window"`              // window length in seconds
	MaxClients         int `toml:"max_clients"`         // tracking map size ceiling
}

// PrecalcConfig configures the background valuation scheduler
type PrecalcConfig struct {
	Schedule        string  `toml:"schedule"`         // cron expression for the full refresh
	RefreshInterval string  `toml:"refresh_interval"` // staleness horizon for scenario records, e.g. "1h"
	Inflation       float64 `toml:"inflation"`        // annual percent, feeds real-yield figures
	ReinvestSpread  float64 `toml:"reinvest_spread"`  // points below key rate for reinvestment yields

	// The three scenario runs combined into the detail endpoint's
	// reward/risk section
	BaseScenario         string `toml:"base_scenario"`
	OptimisticScenario   string `toml:"optimistic_scenario"`
	ConservativeScenario string `toml:"conservative_scenario"`
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings should be exposed in bondval.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Scenarios: ScenariosConfig{
			Dir: "./scenarios",
		},
		MarketData: MarketDataConfig{
			RateLimit:    5,
			BondCacheTTL: "1h",
			RateCacheTTL: "6h",
		},
		Gateway: GatewayConfig{
			CallTimeout:      "15s",
			MaxAttempts:      3,
			InitialBackoff:   "1s",
			MaxBackoff:       "10s",
			FailureThreshold: 5,
			ResetTimeout:     "30s",
		},
		Throttle: ThrottleConfig{
			GlobalConcurrent:   64,
			EndpointConcurrent: 16,
			ClientLimit:        120,
			Window:             60,
			MaxClients:         1000,
		},
		Precalc: PrecalcConfig{
			Schedule:             "0 * * * *", // hourly
			RefreshInterval:      "1h",
			Inflation:            4.0,
			ReinvestSpread:       2.0,
			BaseScenario:         "base",
			OptimisticScenario:   "optimistic",
			ConservativeScenario: "conservative",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files; later files
// override earlier files, environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("BONDVAL_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("BONDVAL_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("BONDVAL_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("BONDVAL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("BONDVAL_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if dataDir := os.Getenv("BONDVAL_DATA_DIR"); dataDir != "" {
		config.Storage.DataDir = dataDir
	}

	// Scenarios configuration
	if dir := os.Getenv("BONDVAL_SCENARIOS_DIR"); dir != "" {
		config.Scenarios.Dir = dir
	}

	// Market data configuration
	if bondsURL := os.Getenv("BONDVAL_BONDS_URL"); bondsURL != "" {
		config.MarketData.BondsURL = bondsURL
	}
	if ratesURL := os.Getenv("BONDVAL_RATES_URL"); ratesURL != "" {
		config.MarketData.RatesURL = ratesURL
	}
	if rateLimit := os.Getenv("BONDVAL_MARKETDATA_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil && rl > 0 {
			config.MarketData.RateLimit = rl
		}
	}

	// Precalc configuration
	if inflation := os.Getenv("BONDVAL_INFLATION"); inflation != "" {
		if f, err := strconv.ParseFloat(inflation, 64); err == nil {
			config.Precalc.Inflation = f
		}
	}
	if spread := os.Getenv("BONDVAL_REINVEST_SPREAD"); spread != "" {
		if f, err := strconv.ParseFloat(spread, 64); err == nil {
			config.Precalc.ReinvestSpread = f
		}
	}
	if schedule := os.Getenv("BONDVAL_PRECALC_SCHEDULE"); schedule != "" {
		config.Precalc.Schedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Duration parses a duration-valued config field, falling back when the
// field is empty or malformed.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
