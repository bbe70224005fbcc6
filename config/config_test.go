package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("LICITAMATCH_SERVER_PORT")
		os.Unsetenv("LICITAMATCH_SERVER_ENVIRONMENT")
		os.Unsetenv("LICITAMATCH_CACHE_TYPE")
		os.Unsetenv("LICITAMATCH_CACHE_DSN")
		os.Unsetenv("LICITAMATCH_LLM_ENABLED")
		os.Unsetenv("LICITAMATCH_LLM_MODEL")
		os.Unsetenv("LICITAMATCH_LLM_READ_TIMEOUT")
		os.Unsetenv("LICITAMATCH_MATCHING_TOLERANCE_PERCENT")
		os.Unsetenv("LICITAMATCH_EXTRACTION_STRATEGY")
		os.Unsetenv("LICITAMATCH_RATELIMIT_PER_IP")
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
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.SchemaVersion != "v1" {
			t.Errorf("Cache.SchemaVersion = %s, want v1", cfg.Cache.SchemaVersion)
		}
		if !cfg.LLM.Enabled {
			t.Error("LLM.Enabled should default true")
		}
		if cfg.LLM.ReadTimeout != 120*time.Second {
			t.Errorf("LLM.ReadTimeout = %v, want 120s", cfg.LLM.ReadTimeout)
		}
		if cfg.Matching.TolerancePercent != 0 {
			t.Errorf("Matching.TolerancePercent = %v, want 0", cfg.Matching.TolerancePercent)
		}
		if cfg.Matching.KeyPolicy != "all" {
			t.Errorf("Matching.KeyPolicy = %s, want all", cfg.Matching.KeyPolicy)
		}
		if cfg.Extraction.Strategy != "rag" {
			t.Errorf("Extraction.Strategy = %s, want rag", cfg.Extraction.Strategy)
		}
		if cfg.Extraction.TopK != 10 {
			t.Errorf("Extraction.TopK = %d, want 10", cfg.Extraction.TopK)
		}
		if cfg.RateLimit.PerIP != 60 {
			t.Errorf("RateLimit.PerIP = %d, want 60", cfg.RateLimit.PerIP)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("LICITAMATCH_SERVER_PORT", "9090")
		os.Setenv("LICITAMATCH_SERVER_ENVIRONMENT", "production")
		os.Setenv("LICITAMATCH_LLM_MODEL", "llama3.1:8b")
		os.Setenv("LICITAMATCH_LLM_READ_TIMEOUT", "30s")
		os.Setenv("LICITAMATCH_MATCHING_TOLERANCE_PERCENT", "5")
		os.Setenv("LICITAMATCH_EXTRACTION_STRATEGY", "fullscan")
		os.Setenv("LICITAMATCH_RATELIMIT_PER_IP", "200")
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
		if cfg.LLM.Model != "llama3.1:8b" {
			t.Errorf("LLM.Model = %s, want llama3.1:8b", cfg.LLM.Model)
		}
		if cfg.LLM.ReadTimeout != 30*time.Second {
			t.Errorf("LLM.ReadTimeout = %v, want 30s", cfg.LLM.ReadTimeout)
		}
		if cfg.Matching.TolerancePercent != 5 {
			t.Errorf("Matching.TolerancePercent = %v, want 5", cfg.Matching.TolerancePercent)
		}
		if cfg.Extraction.Strategy != "fullscan" {
			t.Errorf("Extraction.Strategy = %s, want fullscan", cfg.Extraction.Strategy)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
	})

	t.Run("postgres cache requires a dsn", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("LICITAMATCH_CACHE_TYPE", "postgres")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("postgres without DSN should fail validation")
		}
	})

	t.Run("invalid strategy fails validation", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("LICITAMATCH_EXTRACTION_STRATEGY", "embeddings")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("unknown strategy should fail validation")
		}
	})

	t.Run("negative tolerance clamps to zero", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("LICITAMATCH_MATCHING_TOLERANCE_PERCENT", "-3")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Matching.TolerancePercent != 0 {
			t.Errorf("TolerancePercent = %v, want clamped 0", cfg.Matching.TolerancePercent)
		}
	})
}
