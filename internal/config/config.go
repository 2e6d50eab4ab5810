// Package config loads and persists the concierge configuration. It is read
// from ~/.concierge/config.yaml and can be overridden by environment
// variables with the CONCIERGE_ prefix.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration for the concierge assistant.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Query    QueryConfig    `mapstructure:"query" yaml:"query"`
	Fallback FallbackConfig `mapstructure:"fallback" yaml:"fallback"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Language string         `mapstructure:"language" yaml:"language"`
}

// LLMConfig configures the inference tier of intent extraction. Provider
// "none" (or empty) disables the tier, leaving only the keyword fallback.
type LLMConfig struct {
	Provider     string `mapstructure:"provider" yaml:"provider"`
	Model        string `mapstructure:"model" yaml:"model"`
	OllamaHost   string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OpenAIKey    string `mapstructure:"openai_api_key" yaml:"openai_api_key"`
	AnthropicKey string `mapstructure:"anthropic_api_key" yaml:"anthropic_api_key"`
}

// SessionConfig tunes the session store and its background sweeper.
type SessionConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	MaxIdle       time.Duration `mapstructure:"max_idle" yaml:"max_idle"`
	RetryInterval time.Duration `mapstructure:"retry_interval" yaml:"retry_interval"`
}

// QueryConfig tunes the executor's caches.
type QueryConfig struct {
	SearchCacheTTL time.Duration `mapstructure:"search_cache_ttl" yaml:"search_cache_ttl"`
	RecentCacheTTL time.Duration `mapstructure:"recent_cache_ttl" yaml:"recent_cache_ttl"`
}

// FallbackConfig tunes the retry-then-fallback chain around provider calls.
type FallbackConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
	File   string `mapstructure:"file" yaml:"file"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:   "ollama",
			Model:      "llama3.2",
			OllamaHost: "http://localhost:11434",
		},
		Session: SessionConfig{
			SweepInterval: 5 * time.Minute,
			MaxIdle:       30 * time.Minute,
			RetryInterval: time.Minute,
		},
		Query: QueryConfig{
			SearchCacheTTL: 15 * time.Minute,
			RecentCacheTTL: 5 * time.Minute,
		},
		Fallback: FallbackConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			Enabled:     true,
			Timeout:     10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
		Language: "en",
	}
}

// Load reads configuration from the default location
// (~/.concierge/config.yaml) and merges with environment variables. If no
// config file exists, one is created with default values.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return LoadFromPath(filepath.Join(homeDir, ".concierge", "config.yaml"))
}

// LoadFromPath reads configuration from a specific file, creating it with
// defaults when missing. Environment variables win over file values, e.g.
// CONCIERGE_LLM_PROVIDER overrides llm.provider.
func LoadFromPath(path string) (*Config, error) {
	path = expandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfigFile(path, Default()); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CONCIERGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Logging.File = expandPath(cfg.Logging.File)
	return &cfg, nil
}

// Save writes the configuration to the default config file location.
func (c *Config) Save() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	return c.SaveToPath(filepath.Join(homeDir, ".concierge", "config.yaml"))
}

// SaveToPath writes the configuration to a specific file path.
func (c *Config) SaveToPath(path string) error {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return writeConfigFile(path, c)
}

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	validProviders := map[string]bool{"": true, "none": true, "ollama": true, "openai": true, "anthropic": true}
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("invalid llm provider '%s', must be one of: none, ollama, openai, anthropic", c.LLM.Provider)
	}

	if c.Fallback.MaxAttempts < 1 {
		return fmt.Errorf("fallback.max_attempts must be at least 1")
	}
	if c.Fallback.BaseDelay < 0 {
		return fmt.Errorf("fallback.base_delay cannot be negative")
	}

	if c.Session.MaxIdle <= 0 {
		return fmt.Errorf("session.max_idle must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLanguages := map[string]bool{"en": true, "hi": true, "ta": true}
	if !validLanguages[c.Language] {
		return fmt.Errorf("invalid language '%s', must be one of: en, hi, ta", c.Language)
	}

	return nil
}

// LLMEnabled reports whether an inference model should be constructed.
func (c *Config) LLMEnabled() bool {
	return c.LLM.Provider != "" && c.LLM.Provider != "none"
}

func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
