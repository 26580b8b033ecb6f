package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Matching  MatchingConfig
	Dedup     DedupConfig
	Price     PriceConfig
	Ingest    IngestConfig
	Search    SearchConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MatchingConfig holds identity-matcher tuning. The fuzzy threshold is a
// deployment decision, not a guaranteed-optimal constant; validate changes
// against a labeled sample before rolling them out.
type MatchingConfig struct {
	FuzzyThreshold     float64 `mapstructure:"fuzzy_threshold"`
	MinKeywordOverlap  int     `mapstructure:"min_keyword_overlap"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// DedupConfig holds image deduplication thresholds
type DedupConfig struct {
	HammingThreshold   int `mapstructure:"hamming_threshold"`
	MinWidth           int `mapstructure:"min_width"`
	MinByteSize        int `mapstructure:"min_byte_size"`
	RelaxedMinWidth    int `mapstructure:"relaxed_min_width"`
	RelaxedMinByteSize int `mapstructure:"relaxed_min_byte_size"`
	MinValidated       int `mapstructure:"min_validated"`
}

// PriceSourceConfig names one price feed and its trust weight; list order is
// the cascade order, highest trust first.
type PriceSourceConfig struct {
	Name        string  `mapstructure:"name"`
	TrustWeight float64 `mapstructure:"trust_weight"`
}

// PriceConfig holds price-rescue configuration
type PriceConfig struct {
	MinPlausible float64             `mapstructure:"min_plausible"`
	Sources      []PriceSourceConfig `mapstructure:"sources"`
}

// IngestSourceConfig names one catalog source and its trust weight
type IngestSourceConfig struct {
	ID          string  `mapstructure:"id"`
	TrustWeight float64 `mapstructure:"trust_weight"`
}

// IngestConfig holds the Postgres ingestion settings
type IngestConfig struct {
	Enabled     bool                 `mapstructure:"enabled"`
	DatabaseURL string               `mapstructure:"database_url"`
	SnapshotTTL time.Duration        `mapstructure:"snapshot_ttl"`
	Sources     []IngestSourceConfig `mapstructure:"sources"`
}

// SearchConfig holds the Meilisearch publishing settings
type SearchConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
	Index   string `mapstructure:"index"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/partlens/")

	v.SetEnvPrefix("PARTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("matching.fuzzy_threshold", 0.55)
	v.SetDefault("matching.min_keyword_overlap", 2)
	v.SetDefault("matching.enable_debug_logging", false)

	v.SetDefault("dedup.hamming_threshold", 5)
	v.SetDefault("dedup.min_width", 400)
	v.SetDefault("dedup.min_byte_size", 25600)
	v.SetDefault("dedup.relaxed_min_width", 200)
	v.SetDefault("dedup.relaxed_min_byte_size", 8192)
	v.SetDefault("dedup.min_validated", 1)

	v.SetDefault("price.min_plausible", 100.0)

	v.SetDefault("ingest.enabled", false)
	v.SetDefault("ingest.snapshot_ttl", "1h")

	v.SetDefault("search.enabled", false)
	v.SetDefault("search.url", "http://127.0.0.1:7700")
	v.SetDefault("search.index", "resolved_items")

	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Matching.FuzzyThreshold <= 0 || config.Matching.FuzzyThreshold > 1 {
		return fmt.Errorf("matching fuzzy threshold must be in (0,1], got: %v", config.Matching.FuzzyThreshold)
	}

	if config.Dedup.HammingThreshold < 0 || config.Dedup.HammingThreshold > 64 {
		return fmt.Errorf("dedup hamming threshold must be in [0,64], got: %d", config.Dedup.HammingThreshold)
	}

	for i, src := range config.Price.Sources {
		if src.TrustWeight < 0 || src.TrustWeight > 1 {
			return fmt.Errorf("price source %q trust weight must be in [0,1], got: %v", src.Name, src.TrustWeight)
		}
		if i > 0 && src.TrustWeight > config.Price.Sources[i-1].TrustWeight {
			return fmt.Errorf("price sources must be listed in descending trust order (%q outranks %q)",
				src.Name, config.Price.Sources[i-1].Name)
		}
	}

	if config.Ingest.Enabled && config.Ingest.DatabaseURL == "" {
		return fmt.Errorf("database URL is required when ingest is enabled (set PARTLENS_INGEST_DATABASE_URL)")
	}

	if config.Search.Enabled && config.Search.URL == "" {
		return fmt.Errorf("search URL is required when search publishing is enabled")
	}

	return nil
}
