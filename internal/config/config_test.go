package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigYAMLRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Language = "en"
	cfg.Store.Backend = BackendSQLite
	cfg.Dedup.Threshold = 0.85

	if err := WriteConfig(tmpDir, cfg); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	loaded, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	if loaded.Language != "en" {
		t.Errorf("Language: got %q, want %q", loaded.Language, "en")
	}
	if loaded.Store.Backend != BackendSQLite {
		t.Errorf("Store.Backend: got %q, want %q", loaded.Store.Backend, BackendSQLite)
	}
	if loaded.Dedup.Threshold != 0.85 {
		t.Errorf("Dedup.Threshold: got %v, want 0.85", loaded.Dedup.Threshold)
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Generation.QuestionsCount != 7 {
		t.Errorf("QuestionsCount: got %d, want 7", cfg.Generation.QuestionsCount)
	}
	if cfg.LLM.BaseURL != "http://localhost:1234/v1" {
		t.Errorf("BaseURL: got %q", cfg.LLM.BaseURL)
	}
	if cfg.RetryDelay() != 2*time.Second {
		t.Errorf("RetryDelay: got %v, want 2s", cfg.RetryDelay())
	}
	if cfg.LLMTimeout() != 180*time.Second {
		t.Errorf("LLMTimeout: got %v, want 180s", cfg.LLMTimeout())
	}
	if cfg.Monitor.MaxAttempts != 3 || cfg.Monitor.MaxStageSeconds != 600 {
		t.Errorf("Monitor: got %+v", cfg.Monitor)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	partial := `version: 1
language: en
llm:
  provider: claude
`
	configPath := filepath.Join(tmpDir, ".briefing")
	if err := os.MkdirAll(configPath, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configPath, "config.yaml"), []byte(partial), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Provider != ProviderClaude {
		t.Errorf("Provider: got %q, want claude", cfg.LLM.Provider)
	}
	if cfg.LLM.MaxRetries != 3 {
		t.Errorf("MaxRetries should keep default 3, got %d", cfg.LLM.MaxRetries)
	}
	if cfg.Dedup.Threshold != 0.7 {
		t.Errorf("Threshold should keep default 0.7, got %v", cfg.Dedup.Threshold)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Language != "ru" {
		t.Errorf("Language: got %q, want ru", cfg.Language)
	}
}

func TestReadConfigMalformed(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".briefing")
	if err := os.MkdirAll(configPath, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configPath, "config.yaml"), []byte("llm: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(tmpDir); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown language", func(c *Config) { c.Language = "de" }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "ollama" }},
		{"zero threshold", func(c *Config) { c.Dedup.Threshold = 0 }},
		{"threshold above one", func(c *Config) { c.Dedup.Threshold = 1.2 }},
		{"no questions", func(c *Config) { c.Generation.QuestionsCount = 0 }},
		{"no retries", func(c *Config) { c.LLM.MaxRetries = 0 }},
		{"stage time below retry budget", func(c *Config) { c.Monitor.MaxStageSeconds = 300 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() accepted %s", tt.name)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Dedup.Threshold = 1
	if err := cfg.Validate(); err != nil {
		t.Errorf("threshold 1 should be accepted: %v", err)
	}

	cfg = DefaultConfig()
	cfg.Monitor.MaxStageSeconds = cfg.LLM.Timeout * cfg.LLM.MaxRetries
	if err := cfg.Validate(); err != nil {
		t.Errorf("stage time equal to the retry budget should be accepted: %v", err)
	}
}

func TestResolvePath(t *testing.T) {
	if got := ResolvePath("/proj", ".briefing/sessions"); got != filepath.Join("/proj", ".briefing/sessions") {
		t.Errorf("relative: got %q", got)
	}
	if got := ResolvePath("/proj", "/var/data"); got != "/var/data" {
		t.Errorf("absolute: got %q", got)
	}
}
