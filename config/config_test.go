package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("PARTLENS_SERVER_PORT")
		os.Unsetenv("PARTLENS_SERVER_ENVIRONMENT")
		os.Unsetenv("PARTLENS_MATCHING_FUZZY_THRESHOLD")
		os.Unsetenv("PARTLENS_MATCHING_MIN_KEYWORD_OVERLAP")
		os.Unsetenv("PARTLENS_DEDUP_HAMMING_THRESHOLD")
		os.Unsetenv("PARTLENS_DEDUP_MIN_WIDTH")
		os.Unsetenv("PARTLENS_PRICE_MIN_PLAUSIBLE")
		os.Unsetenv("PARTLENS_INGEST_ENABLED")
		os.Unsetenv("PARTLENS_INGEST_DATABASE_URL")
		os.Unsetenv("PARTLENS_INGEST_SNAPSHOT_TTL")
		os.Unsetenv("PARTLENS_SEARCH_ENABLED")
		os.Unsetenv("PARTLENS_SEARCH_URL")
		os.Unsetenv("PARTLENS_RATELIMIT_PER_IP")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Matching.FuzzyThreshold != 0.55 {
			t.Errorf("Matching.FuzzyThreshold = %v, want 0.55", cfg.Matching.FuzzyThreshold)
		}
		if cfg.Matching.MinKeywordOverlap != 2 {
			t.Errorf("Matching.MinKeywordOverlap = %d, want 2", cfg.Matching.MinKeywordOverlap)
		}
		if cfg.Dedup.HammingThreshold != 5 {
			t.Errorf("Dedup.HammingThreshold = %d, want 5", cfg.Dedup.HammingThreshold)
		}
		if cfg.Dedup.MinWidth != 400 {
			t.Errorf("Dedup.MinWidth = %d, want 400", cfg.Dedup.MinWidth)
		}
		if cfg.Dedup.RelaxedMinWidth != 200 {
			t.Errorf("Dedup.RelaxedMinWidth = %d, want 200", cfg.Dedup.RelaxedMinWidth)
		}
		if cfg.Price.MinPlausible != 100.0 {
			t.Errorf("Price.MinPlausible = %v, want 100", cfg.Price.MinPlausible)
		}
		if cfg.Ingest.Enabled {
			t.Error("Ingest.Enabled = true, want false by default")
		}
		if cfg.Ingest.SnapshotTTL != time.Hour {
			t.Errorf("Ingest.SnapshotTTL = %v, want 1h", cfg.Ingest.SnapshotTTL)
		}
		if cfg.Search.Enabled {
			t.Error("Search.Enabled = true, want false by default")
		}
		if cfg.Search.Index != "resolved_items" {
			t.Errorf("Search.Index = %s, want resolved_items", cfg.Search.Index)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PARTLENS_SERVER_PORT", "9090")
		os.Setenv("PARTLENS_SERVER_ENVIRONMENT", "production")
		os.Setenv("PARTLENS_MATCHING_FUZZY_THRESHOLD", "0.7")
		os.Setenv("PARTLENS_DEDUP_HAMMING_THRESHOLD", "8")
		os.Setenv("PARTLENS_PRICE_MIN_PLAUSIBLE", "500")
		os.Setenv("PARTLENS_INGEST_SNAPSHOT_TTL", "30m")
		os.Setenv("PARTLENS_RATELIMIT_PER_IP", "200")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Matching.FuzzyThreshold != 0.7 {
			t.Errorf("Matching.FuzzyThreshold = %v, want 0.7", cfg.Matching.FuzzyThreshold)
		}
		if cfg.Dedup.HammingThreshold != 8 {
			t.Errorf("Dedup.HammingThreshold = %d, want 8", cfg.Dedup.HammingThreshold)
		}
		if cfg.Price.MinPlausible != 500 {
			t.Errorf("Price.MinPlausible = %v, want 500", cfg.Price.MinPlausible)
		}
		if cfg.Ingest.SnapshotTTL != 30*time.Minute {
			t.Errorf("Ingest.SnapshotTTL = %v, want 30m", cfg.Ingest.SnapshotTTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
	})

	t.Run("fails validation for out-of-range fuzzy threshold", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PARTLENS_MATCHING_FUZZY_THRESHOLD", "1.5")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for fuzzy threshold > 1")
		}
	})

	t.Run("fails validation for out-of-range hamming threshold", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PARTLENS_DEDUP_HAMMING_THRESHOLD", "80")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for hamming threshold > 64")
		}
	})

	t.Run("fails validation when ingest enabled without database URL", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("PARTLENS_INGEST_ENABLED", "true")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing database URL")
		}
	})
}

func TestValidate(t *testing.T) {
	validConfig := func() *Config {
		return &Config{
			Matching: MatchingConfig{FuzzyThreshold: 0.55, MinKeywordOverlap: 2},
			Dedup:    DedupConfig{HammingThreshold: 5},
			Price:    PriceConfig{MinPlausible: 100},
		}
	}

	t.Run("validates successfully with required fields", func(t *testing.T) {
		if err := validate(validConfig()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("accepts price sources in descending trust order", func(t *testing.T) {
		cfg := validConfig()
		cfg.Price.Sources = []PriceSourceConfig{
			{Name: "pricesheet", TrustWeight: 0.9},
			{Name: "archive", TrustWeight: 0.8},
			{Name: "storefront", TrustWeight: 0.8},
		}

		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil for descending trust", err)
		}
	})

	t.Run("fails for ascending price source trust", func(t *testing.T) {
		cfg := validConfig()
		cfg.Price.Sources = []PriceSourceConfig{
			{Name: "storefront", TrustWeight: 0.7},
			{Name: "pricesheet", TrustWeight: 0.9},
		}

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for ascending trust order")
		}
	})

	t.Run("fails for price source trust outside [0,1]", func(t *testing.T) {
		cfg := validConfig()
		cfg.Price.Sources = []PriceSourceConfig{{Name: "broken", TrustWeight: 1.2}}

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for trust weight > 1")
		}
	})

	t.Run("fails when search enabled without URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Search.Enabled = true

		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for missing search URL")
		}
	})
}
