package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Extraction.APIKey = "test-key"
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "braindumpd", cfg.Telemetry.ServiceName)
	assert.Equal(t, 15*time.Second, cfg.Telemetry.MetricsInterval.Duration())
	assert.Equal(t, "anthropic", cfg.Extraction.Provider)
	assert.Equal(t, 60*time.Second, cfg.Extraction.Timeout.Duration())
	assert.InDelta(t, 0.3, cfg.Extraction.Temperature, 0.001)
	assert.Equal(t, 4096, cfg.Extraction.MaxTokens)
	assert.Equal(t, ModeLLMFirst, cfg.Extraction.Mode)
	assert.Equal(t, 600*time.Millisecond, cfg.Segmenter.PauseThreshold.Duration())
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Extraction.Provider = "openai"
	applyDefaults(cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.Extraction.Provider)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "port too low",
			mutate:  func(cfg *Config) { cfg.Server.Port = 0 },
			wantErr: "server port",
		},
		{
			name:    "port too high",
			mutate:  func(cfg *Config) { cfg.Server.Port = 70000 },
			wantErr: "server port",
		},
		{
			name:    "bad log format",
			mutate:  func(cfg *Config) { cfg.Logging.Format = "xml" },
			wantErr: "logging format",
		},
		{
			name:    "bad extraction mode",
			mutate:  func(cfg *Config) { cfg.Extraction.Mode = "psychic" },
			wantErr: "extraction mode",
		},
		{
			name:    "bad provider",
			mutate:  func(cfg *Config) { cfg.Extraction.Provider = "cohere" },
			wantErr: "extraction provider",
		},
		{
			name:    "missing api key",
			mutate:  func(cfg *Config) { cfg.Extraction.APIKey = "" },
			wantErr: "api_key is required",
		},
		{
			name: "no api key needed when disabled",
			mutate: func(cfg *Config) {
				cfg.Extraction.Provider = "disabled"
				cfg.Extraction.APIKey = ""
			},
		},
		{
			name: "no api key needed for deterministic_first",
			mutate: func(cfg *Config) {
				cfg.Extraction.Mode = ModeDeterministicFirst
				cfg.Extraction.APIKey = ""
			},
		},
		{
			name:    "temperature out of range",
			mutate:  func(cfg *Config) { cfg.Extraction.Temperature = 3.5 },
			wantErr: "temperature",
		},
		{
			name:    "non-positive pause threshold",
			mutate:  func(cfg *Config) { cfg.Segmenter.PauseThreshold = Duration(-time.Second) },
			wantErr: "pause_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadWithFile_RejectsPathOutsideAllowedDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file must be in")
}
