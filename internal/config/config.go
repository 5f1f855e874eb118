// Package config handles reading and writing .briefing/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/berth-dev/briefing/internal/lang"
)

// Config is the top-level structure for .briefing/config.yaml.
type Config struct {
	Version    int              `yaml:"version"`
	Language   string           `yaml:"language"`
	Store      StoreConfig      `yaml:"store"`
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
	Dedup      DedupConfig      `yaml:"dedup"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Cleanup    CleanupConfig    `yaml:"cleanup"`
}

// StoreConfig selects the session persistence backend.
type StoreConfig struct {
	Backend    string `yaml:"backend"` // "file" | "sqlite"
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// LLMConfig configures the text-generation provider.
type LLMConfig struct {
	Provider       string `yaml:"provider"` // "openai" | "genai" | "claude"
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	Timeout        int    `yaml:"timeout"` // seconds
	MaxRetries     int    `yaml:"max_retries"`
	RetryDelayMs   int    `yaml:"retry_delay_ms"`
	ProbeTimeoutMs int    `yaml:"probe_timeout_ms"`
}

// GenerationConfig holds batch sizes and sampling parameters.
type GenerationConfig struct {
	QuestionsCount           int     `yaml:"questions_count"`
	CompetencyQuestionsCount int     `yaml:"competency_questions_count"`
	AdaptiveHistory          int     `yaml:"adaptive_history"`
	BackfillHistory          int     `yaml:"backfill_history"`
	MaxTokensQuestions       int     `yaml:"max_tokens_questions"`
	MaxTokensRefined         int     `yaml:"max_tokens_refined"`
	MaxTokensFinal           int     `yaml:"max_tokens_final"`
	TemperatureQuestions     float64 `yaml:"temperature_questions"`
	TemperatureRefined       float64 `yaml:"temperature_refined"`
	TemperatureFinal         float64 `yaml:"temperature_final"`
	DelegateMaxTokens        int     `yaml:"delegate_max_tokens"`
	DelegateTemperature      float64 `yaml:"delegate_temperature"`
}

// DedupConfig tunes near-duplicate detection.
type DedupConfig struct {
	Threshold float64 `yaml:"threshold"`
	CacheSize int     `yaml:"cache_size"`
}

// MonitorConfig tunes the stage loop guard.
type MonitorConfig struct {
	MaxAttempts     int `yaml:"max_attempts"`
	MaxStageSeconds int `yaml:"max_stage_seconds"`
	MinReentryMs    int `yaml:"min_reentry_ms"`
}

// LogConfig controls process and event logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Events bool   `yaml:"events"`
}

// ServerConfig holds the HTTP host settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// CleanupConfig controls removal of stale sessions.
type CleanupConfig struct {
	MaxAgeDays int `yaml:"max_age_days"`
}

const configDir = ".briefing"
const configFile = "config.yaml"

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGenAI  = "genai"
	ProviderClaude = "claude"
)

// ReadConfig reads .briefing/config.yaml from the given project directory.
// dir is the project root (not .briefing/ itself).
// Fields absent from the file keep their defaults.
// Returns an error if the file is not found or YAML is malformed.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configDir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Load is ReadConfig that falls back to DefaultConfig when no config file
// exists, then validates the result.
func Load(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteConfig writes cfg to .briefing/config.yaml in the given project directory.
// Creates the .briefing/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, configDir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dirPath, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Language: lang.Default,
		Store: StoreConfig{
			Backend:    BackendFile,
			Dir:        filepath.Join(configDir, "sessions"),
			SQLitePath: filepath.Join(configDir, "sessions.db"),
		},
		LLM: LLMConfig{
			Provider:       ProviderOpenAI,
			BaseURL:        "http://localhost:1234/v1",
			Model:          "local-model",
			Timeout:        180,
			MaxRetries:     3,
			RetryDelayMs:   2000,
			ProbeTimeoutMs: 3000,
		},
		Generation: GenerationConfig{
			QuestionsCount:           7,
			CompetencyQuestionsCount: 5,
			AdaptiveHistory:          15,
			BackfillHistory:          10,
			MaxTokensQuestions:       8192,
			MaxTokensRefined:         8192,
			MaxTokensFinal:           8192,
			TemperatureQuestions:     0.8,
			TemperatureRefined:       0.6,
			TemperatureFinal:         0.5,
			DelegateMaxTokens:        300,
			DelegateTemperature:      0.3,
		},
		Dedup: DedupConfig{
			Threshold: 0.7,
			CacheSize: 1024,
		},
		Monitor: MonitorConfig{
			MaxAttempts:     3,
			MaxStageSeconds: 600,
			MinReentryMs:    1000,
		},
		Log: LogConfig{
			Level:  "info",
			Events: true,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Cleanup: CleanupConfig{
			MaxAgeDays: 30,
		},
	}
}

// Validate rejects settings the rest of the program cannot honour.
func (c *Config) Validate() error {
	if _, err := lang.Lookup(c.Language); err != nil {
		return fmt.Errorf("config language: %w", err)
	}
	switch c.Store.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("config store.backend: unknown backend %q", c.Store.Backend)
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGenAI, ProviderClaude:
	default:
		return fmt.Errorf("config llm.provider: unknown provider %q", c.LLM.Provider)
	}
	if c.Dedup.Threshold <= 0 || c.Dedup.Threshold > 1 {
		return fmt.Errorf("config dedup.threshold: %v outside (0,1]", c.Dedup.Threshold)
	}
	if c.Generation.QuestionsCount < 1 {
		return fmt.Errorf("config generation.questions_count: must be positive")
	}
	if c.LLM.MaxRetries < 1 {
		return fmt.Errorf("config llm.max_retries: must be positive")
	}
	// One stage run may spend every retry of a single call.
	if c.Monitor.MaxStageSeconds > 0 && c.Monitor.MaxStageSeconds < c.LLM.Timeout*c.LLM.MaxRetries {
		return fmt.Errorf("config monitor.max_stage_seconds: %d is shorter than llm.timeout x llm.max_retries (%d)",
			c.Monitor.MaxStageSeconds, c.LLM.Timeout*c.LLM.MaxRetries)
	}
	return nil
}

// LLMTimeout returns the per-request timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.Timeout) * time.Second
}

// RetryDelay returns the fixed delay between generation attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.LLM.RetryDelayMs) * time.Millisecond
}

// ProbeTimeout returns the availability probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.LLM.ProbeTimeoutMs) * time.Millisecond
}

// ResolvePath resolves a path from the config relative to the project root.
func ResolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
