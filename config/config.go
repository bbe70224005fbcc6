package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Cache      CacheConfig
	LLM        LLMConfig
	Matching   MatchingConfig
	Extraction ExtractionConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	Debug          bool     `mapstructure:"debug"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CacheConfig selects and parameterizes the cache store backend.
type CacheConfig struct {
	Type          string `mapstructure:"type"` // "memory" or "postgres"
	DSN           string `mapstructure:"dsn"`
	SchemaVersion string `mapstructure:"schema_version"`
}

// LLMConfig holds the generation backend settings. Enabled=false runs the
// pipeline on heuristics only.
type LLMConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	Retries        int           `mapstructure:"retries"`
	Backoff        time.Duration `mapstructure:"backoff"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
}

// MatchingConfig holds tolerance and override policies. Tolerance values
// above 1.0 are percentages; malformed per-key entries are dropped with a
// safe default rather than failing startup.
type MatchingConfig struct {
	TolerancePercent   float64            `mapstructure:"tolerance_percent"`
	ToleranceOverrides map[string]float64 `mapstructure:"tolerance_overrides"`
	KeyRequirements    []string           `mapstructure:"key_requirements"`
	KeyPolicy          string             `mapstructure:"key_policy"`
	SequenceFilter     []string           `mapstructure:"sequence_filter"`
}

// ExtractionConfig holds the pipeline strategy tunables; all of them feed
// the cache settings signature.
type ExtractionConfig struct {
	Strategy            string `mapstructure:"strategy"` // "rag" or "fullscan"
	EmbedModel          string `mapstructure:"embed_model"`
	TopK                int    `mapstructure:"top_k"`
	ChunkWords          int    `mapstructure:"chunk_words"`
	WindowWords         int    `mapstructure:"window_words"`
	StrideWords         int    `mapstructure:"stride_words"`
	MaxWindows          int    `mapstructure:"max_windows"`
	EnableJustification bool   `mapstructure:"enable_justification"`
}

// RateLimitConfig holds HTTP rate limiting settings.
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load reads configuration from an optional yaml file and LICITAMATCH_*
// environment variables, applies defaults and validates.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/licitamatch/")

	v.SetEnvPrefix("LICITAMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No file; env vars and defaults apply.
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.schema_version", "v1")

	v.SetDefault("llm.enabled", true)
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.model", "llama3.2:1b")
	v.SetDefault("llm.connect_timeout", "10s")
	v.SetDefault("llm.read_timeout", "120s")
	v.SetDefault("llm.retries", 1)
	v.SetDefault("llm.backoff", "2s")
	v.SetDefault("llm.requests_per_sec", 2.0)

	v.SetDefault("matching.tolerance_percent", 0.0)
	v.SetDefault("matching.key_policy", "all")

	v.SetDefault("extraction.strategy", "rag")
	v.SetDefault("extraction.embed_model", "intfloat/e5-base-v2")
	v.SetDefault("extraction.top_k", 10)
	v.SetDefault("extraction.chunk_words", 400)
	v.SetDefault("extraction.window_words", 800)
	v.SetDefault("extraction.stride_words", 400)
	v.SetDefault("extraction.max_windows", 8)
	v.SetDefault("extraction.enable_justification", true)

	v.SetDefault("ratelimit.per_ip", 60)
}

func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "postgres" {
		return fmt.Errorf("cache type must be 'memory' or 'postgres', got: %s", config.Cache.Type)
	}
	if config.Cache.Type == "postgres" && config.Cache.DSN == "" {
		return fmt.Errorf("cache DSN is required when cache type is 'postgres'")
	}
	if config.Extraction.Strategy != "rag" && config.Extraction.Strategy != "fullscan" {
		return fmt.Errorf("extraction strategy must be 'rag' or 'fullscan', got: %s", config.Extraction.Strategy)
	}
	if config.Matching.KeyPolicy != "all" && config.Matching.KeyPolicy != "any" {
		// Malformed policy is a safe-default situation, not a startup failure.
		config.Matching.KeyPolicy = "all"
	}
	// Negative tolerances clamp rather than fail.
	if config.Matching.TolerancePercent < 0 {
		config.Matching.TolerancePercent = 0
	}
	for k, tol := range config.Matching.ToleranceOverrides {
		if tol < 0 {
			delete(config.Matching.ToleranceOverrides, k)
		}
	}
	return nil
}
