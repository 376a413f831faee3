// Package config loads bughound's YAML configuration and applies defaults
// and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultProviderKind    = "gemini"
	DefaultRetrievalDepth  = "basic"
	DefaultMaxIterations   = 2
	DefaultCooldownSeconds = 5
	DefaultConcurrency     = 1
	DefaultLogLevel        = "info"
)

// Config is the full runtime configuration.
type Config struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Run       RunConfig       `yaml:"run"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ProviderConfig selects and configures the language model backend.
type ProviderConfig struct {
	// Kind is gemini or openai.
	Kind    string `yaml:"kind"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// RetrievalConfig selects the documentation retriever.
type RetrievalConfig struct {
	// Backend is tavily, store, embedding or none.
	Backend   string `yaml:"backend"`
	APIKey    string `yaml:"api_key"`
	StorePath string `yaml:"store_path"`
	Depth     string `yaml:"depth"`
}

// RunConfig tunes the verification loop and batch execution.
type RunConfig struct {
	MaxIterations   int `yaml:"max_iterations"`
	CooldownSeconds int `yaml:"cooldown_seconds"`
	Concurrency     int `yaml:"concurrency"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderConfig{Kind: DefaultProviderKind},
		Retrieval: RetrievalConfig{
			Backend: "none",
			Depth:   DefaultRetrievalDepth,
		},
		Run: RunConfig{
			MaxIterations:   DefaultMaxIterations,
			CooldownSeconds: DefaultCooldownSeconds,
			Concurrency:     DefaultConcurrency,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Load reads and parses the config file at path. A missing file yields the
// defaults; missing fields are filled from the defaults. Environment
// variables BUGHOUND_API_KEY and TAVILY_API_KEY override the corresponding
// keys so secrets can stay out of the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("BUGHOUND_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		cfg.Retrieval.APIKey = key
	}
}

// Validate checks that all config values are valid.
func Validate(cfg *Config) error {
	switch cfg.Provider.Kind {
	case "gemini", "openai":
	default:
		return ValidationError{Field: "provider.kind", Message: "must be gemini or openai"}
	}

	switch cfg.Retrieval.Backend {
	case "tavily", "store", "embedding", "none":
	default:
		return ValidationError{Field: "retrieval.backend", Message: "must be tavily, store, embedding or none"}
	}
	if (cfg.Retrieval.Backend == "store" || cfg.Retrieval.Backend == "embedding") && cfg.Retrieval.StorePath == "" {
		return ValidationError{Field: "retrieval.store_path", Message: "required for the store and embedding backends"}
	}

	if cfg.Run.MaxIterations <= 0 {
		return ValidationError{Field: "run.max_iterations", Message: "must be positive"}
	}
	if cfg.Run.CooldownSeconds < 0 {
		return ValidationError{Field: "run.cooldown_seconds", Message: "must not be negative"}
	}
	if cfg.Run.Concurrency <= 0 {
		return ValidationError{Field: "run.concurrency", Message: "must be positive"}
	}
	return nil
}
