// Package config provides configuration loading for braindumpd.
package config

import (
	"fmt"
	"time"
)

// Extraction modes. See pipeline for semantics.
const (
	ModeLLMFirst           = "llm_first"
	ModeDeterministicFirst = "deterministic_first"
	ModeLLMOnly            = "llm_only"
)

// Config is the root configuration for braindumpd.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Extraction ExtractionConfig `koanf:"extraction"`
	Segmenter  SegmenterConfig  `koanf:"segmenter"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "console"
}

// TelemetryConfig holds OpenTelemetry configuration.
type TelemetryConfig struct {
	Enabled         bool     `koanf:"enabled"`
	Endpoint        string   `koanf:"endpoint"`
	ServiceName     string   `koanf:"service_name"`
	ServiceVersion  string   `koanf:"service_version"`
	Insecure        bool     `koanf:"insecure"` // Use insecure connection (no TLS)
	MetricsInterval Duration `koanf:"metrics_interval"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// ExtractionConfig holds LLM extraction configuration.
type ExtractionConfig struct {
	// Provider selects the structured-output backend: "anthropic",
	// "openai", or "disabled" (deterministic extraction only).
	Provider    string   `koanf:"provider"`
	Model       string   `koanf:"model"`
	APIKey      Secret   `koanf:"api_key"`
	BaseURL     string   `koanf:"base_url"`
	Timeout     Duration `koanf:"timeout"`
	Temperature float64  `koanf:"temperature"`
	MaxTokens   int      `koanf:"max_tokens"`

	// Mode controls whether the model or the deterministic extractor
	// runs first: llm_first, deterministic_first, llm_only.
	Mode string `koanf:"mode"`

	// ModelUpgrades maps a model to the model used for the escalation
	// retry. Models absent from the map upgrade to themselves.
	ModelUpgrades map[string]string `koanf:"model_upgrades"`
}

// SegmenterConfig holds transcript segmentation configuration.
type SegmenterConfig struct {
	// PauseThreshold is the minimum silence gap between timed spans
	// that starts a new segment.
	PauseThreshold Duration `koanf:"pause_threshold"`
}

// applyDefaults fills in zero values with production defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "braindumpd"
	}
	if cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = "0.1.0"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = Duration(15 * time.Second)
	}
	if cfg.Telemetry.ShutdownTimeout == 0 {
		cfg.Telemetry.ShutdownTimeout = Duration(5 * time.Second)
	}
	if cfg.Extraction.Provider == "" {
		cfg.Extraction.Provider = "anthropic"
	}
	if cfg.Extraction.Timeout == 0 {
		cfg.Extraction.Timeout = Duration(60 * time.Second)
	}
	if cfg.Extraction.Temperature == 0 {
		cfg.Extraction.Temperature = 0.3
	}
	if cfg.Extraction.MaxTokens == 0 {
		cfg.Extraction.MaxTokens = 4096
	}
	if cfg.Extraction.Mode == "" {
		cfg.Extraction.Mode = ModeLLMFirst
	}
	if cfg.Segmenter.PauseThreshold == 0 {
		cfg.Segmenter.PauseThreshold = Duration(600 * time.Millisecond)
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be 1-65535, got %d", c.Server.Port)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format must be json or console, got %q", c.Logging.Format)
	}
	switch c.Extraction.Mode {
	case ModeLLMFirst, ModeDeterministicFirst, ModeLLMOnly:
	default:
		return fmt.Errorf("extraction mode must be one of %s, %s, %s; got %q",
			ModeLLMFirst, ModeDeterministicFirst, ModeLLMOnly, c.Extraction.Mode)
	}
	switch c.Extraction.Provider {
	case "anthropic", "openai", "disabled":
	default:
		return fmt.Errorf("extraction provider must be anthropic, openai or disabled; got %q", c.Extraction.Provider)
	}
	if c.Extraction.Provider != "disabled" && c.Extraction.Mode != ModeDeterministicFirst && !c.Extraction.APIKey.IsSet() {
		return fmt.Errorf("extraction api_key is required for provider %q in mode %q", c.Extraction.Provider, c.Extraction.Mode)
	}
	if c.Extraction.Temperature < 0 || c.Extraction.Temperature > 2 {
		return fmt.Errorf("extraction temperature must be 0-2, got %v", c.Extraction.Temperature)
	}
	if c.Segmenter.PauseThreshold.Duration() <= 0 {
		return fmt.Errorf("segmenter pause_threshold must be positive")
	}
	return nil
}
