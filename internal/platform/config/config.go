package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the market-data loader service.
type Config struct {
	Storage       StorageConfig       `mapstructure:"storage"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	HTTP          HTTPConfig          `mapstructure:"http"`
}

// StorageConfig holds the snapshot store location and the resource table.
type StorageConfig struct {
	// Backend selects the reader implementation: "s3" or "dir".
	Backend string `mapstructure:"backend"`

	// Bucket and Region apply to the s3 backend. Endpoint, when set, points
	// the client at an S3-compatible store (MinIO, localstack).
	Bucket   string `mapstructure:"bucket"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`

	// Dir applies to the dir backend.
	Dir string `mapstructure:"dir"`

	Resources ResourcesConfig `mapstructure:"resources"`
}

// ResourcesConfig names each logical dataset inside the snapshot store. It is
// built once at load time and passed around as an immutable value; nothing
// reads resource names from ambient state.
type ResourcesConfig struct {
	FundCodes      string `mapstructure:"fund_codes"`
	FundPrices     string `mapstructure:"fund_prices"`
	Benchmark      string `mapstructure:"benchmark"`
	FactorsDaily   string `mapstructure:"factors_daily"`
	FactorsMonthly string `mapstructure:"factors_monthly"`
}

// CacheConfig bounds the in-memory table cache.
type CacheConfig struct {
	MaxLen int           `mapstructure:"max_len"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TracingConfig holds tracing settings.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not fatal if env vars are set
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Storage defaults mirror the primary-layer snapshot layout.
	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.resources.fund_codes", "01_primary/fund_codes.parquet")
	v.SetDefault("storage.resources.fund_prices", "01_primary/fund_prices.parquet")
	v.SetDefault("storage.resources.benchmark", "01_primary/sp500.parquet")
	v.SetDefault("storage.resources.factors_daily", "01_primary/ff_daily.parquet")
	v.SetDefault("storage.resources.factors_monthly", "01_primary/ff_monthly.parquet")

	// Cache defaults
	v.SetDefault("cache.max_len", 20)
	v.SetDefault("cache.max_age", "24h")

	// Observability defaults
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.port", 9091)
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")

	// HTTP defaults
	v.SetDefault("http.port", 8080)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for the s3 backend")
		}
		if c.Storage.Region == "" {
			return fmt.Errorf("storage region is required for the s3 backend")
		}
	case "dir":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage dir is required for the dir backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s", c.Storage.Backend)
	}

	r := c.Storage.Resources
	for name, path := range map[string]string{
		"fund_codes":      r.FundCodes,
		"fund_prices":     r.FundPrices,
		"benchmark":       r.Benchmark,
		"factors_daily":   r.FactorsDaily,
		"factors_monthly": r.FactorsMonthly,
	} {
		if path == "" {
			return fmt.Errorf("storage resource %s is required", name)
		}
	}

	if c.Cache.MaxLen <= 0 {
		return fmt.Errorf("cache max_len must be > 0")
	}
	if c.Cache.MaxAge <= 0 {
		return fmt.Errorf("cache max_age must be > 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Observability.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Observability.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Observability.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Observability.Logging.Format)
	}

	return nil
}
