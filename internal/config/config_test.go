package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected default provider 'ollama', got '%s'", cfg.LLM.Provider)
	}

	if cfg.Session.MaxIdle != 30*time.Minute {
		t.Errorf("expected max idle 30m, got %s", cfg.Session.MaxIdle)
	}

	if cfg.Query.SearchCacheTTL != 15*time.Minute {
		t.Errorf("expected search cache TTL 15m, got %s", cfg.Query.SearchCacheTTL)
	}

	if cfg.Fallback.MaxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", cfg.Fallback.MaxAttempts)
	}

	if !cfg.Fallback.Enabled {
		t.Error("expected fallback to be enabled by default")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}

	if cfg.Language != "en" {
		t.Errorf("expected default language 'en', got '%s'", cfg.Language)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestLoadFromPath_CreatesDefaultFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".concierge", "config.yaml")

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("expected config file to be created")
	}

	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected created config to carry defaults, got provider '%s'", cfg.LLM.Provider)
	}
}

func TestLoadFromPath_RoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	cfg := Default()
	cfg.LLM.Provider = "none"
	cfg.Language = "hi"
	cfg.Session.MaxIdle = 45 * time.Minute

	if err := cfg.SaveToPath(configPath); err != nil {
		t.Fatalf("SaveToPath failed: %v", err)
	}

	loaded, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if loaded.LLM.Provider != "none" {
		t.Errorf("expected provider 'none', got '%s'", loaded.LLM.Provider)
	}
	if loaded.Language != "hi" {
		t.Errorf("expected language 'hi', got '%s'", loaded.Language)
	}
	if loaded.Session.MaxIdle != 45*time.Minute {
		t.Errorf("expected max idle 45m, got %s", loaded.Session.MaxIdle)
	}
	if loaded.LLMEnabled() {
		t.Error("provider 'none' should disable the LLM tier")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"bad provider", func(c *Config) { c.LLM.Provider = "skynet" }, true},
		{"zero attempts", func(c *Config) { c.Fallback.MaxAttempts = 0 }, true},
		{"negative delay", func(c *Config) { c.Fallback.BaseDelay = -time.Second }, true},
		{"zero max idle", func(c *Config) { c.Session.MaxIdle = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad language", func(c *Config) { c.Language = "de" }, true},
		{"provider none is fine", func(c *Config) { c.LLM.Provider = "none" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got := expandPath("~/.concierge/config.yaml")
	want := filepath.Join(home, ".concierge", "config.yaml")
	if got != want {
		t.Errorf("expected '%s', got '%s'", want, got)
	}

	if expandPath("/abs/path") != "/abs/path" {
		t.Error("absolute paths should pass through unchanged")
	}
}
