// Package config handles memory-engine configuration loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/memory-engine/internal/budget"
)

// EnvDB overrides the database path from the environment.
const EnvDB = "MEMORY_ENGINE_DB"

// Config holds all memory-engine configuration
type Config struct {
	Database   string           `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Budget     budget.Config    `yaml:"budget"`
	Recall     RecallConfig     `yaml:"recall"`
	Extraction ExtractionConfig `yaml:"extraction"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// RecallConfig tunes retrieval and context assembly
type RecallConfig struct {
	Limit                int     `yaml:"limit"`
	ContextLimit         int     `yaml:"context_limit"`
	ProfileMinConfidence float64 `yaml:"profile_min_confidence"`
	MaxChunkChars        int     `yaml:"max_chunk_chars"`
}

// ExtractionConfig configures session extraction
type ExtractionConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	BaseURL       string        `yaml:"base_url,omitempty"`
	Model         string        `yaml:"model"`
	APIKeyEnv     string        `yaml:"api_key_env"` // name of the env var holding the key
	MessageWindow int           `yaml:"message_window"`
}

// Dir returns the memory-engine home directory.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".memory-engine")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Database: filepath.Join(Dir(), "memory.db"),
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Budget: budget.DefaultConfig(),
		Recall: RecallConfig{
			Limit:                20,
			ContextLimit:         15,
			ProfileMinConfidence: 0.3,
			MaxChunkChars:        2048,
		},
		Extraction: ExtractionConfig{
			Timeout:       15 * time.Second,
			Model:         "gpt-4o-mini",
			APIKeyEnv:     "OPENAI_API_KEY",
			MessageWindow: 50,
		},
	}
}

// Load reads configuration from path over the defaults. An empty path
// reads DefaultPath, where a missing file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects settings the allocator and recall cannot honor.
func (c *Config) Validate() error {
	b := c.Budget
	if b.TotalTokens < 0 || b.ConstitutionTokens < 0 || b.SkillsMaxTokens < 0 {
		return errors.New("budget token counts must not be negative")
	}
	if b.MemoryMaxPercent < 0 || b.MemoryMaxPercent > 1 {
		return fmt.Errorf("budget memory_max_percent %v outside [0,1]", b.MemoryMaxPercent)
	}
	if c.Recall.ProfileMinConfidence < 0 || c.Recall.ProfileMinConfidence > 1 {
		return fmt.Errorf("recall profile_min_confidence %v outside [0,1]", c.Recall.ProfileMinConfidence)
	}
	if c.Recall.Limit < 0 || c.Recall.ContextLimit < 0 || c.Recall.MaxChunkChars < 0 {
		return errors.New("recall limits must not be negative")
	}
	if c.Extraction.Timeout < 0 || c.Extraction.MessageWindow < 0 {
		return errors.New("extraction timeout and message_window must not be negative")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// DBPath resolves the database path: flag, then $MEMORY_ENGINE_DB, then the
// config file, then the default.
func (c *Config) DBPath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvDB); env != "" {
		return env
	}
	if c.Database != "" {
		return c.Database
	}
	return filepath.Join(Dir(), "memory.db")
}

// APIKey returns the extraction API key from the configured env var.
func (c *Config) APIKey() string {
	if c.Extraction.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Extraction.APIKeyEnv)
}
