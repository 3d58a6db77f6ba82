// Package config handles CLI configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/settings"
)

// Config represents the CLI configuration.
type Config struct {
	DefaultModel  string                    `yaml:"default_model"`
	Concurrency   int                       `yaml:"concurrency"`
	Images        string                    `yaml:"images"`
	StockProvider string                    `yaml:"stock_provider"`
	Media         MediaConfig               `yaml:"media"`
	Usage         UsageConfig               `yaml:"usage"`
	Providers     map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds configuration for a specific provider. API keys are
// kept in the keystore or the environment, never here.
type ProviderConfig struct {
	BaseURL    string  `yaml:"base_url,omitempty"`
	Model      string  `yaml:"model,omitempty"`
	ImageModel string  `yaml:"image_model,omitempty"`
	RateLimit  float64 `yaml:"rate_limit,omitempty"`
}

// MediaConfig locates the media store.
type MediaConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

// UsageConfig selects where usage records go. Postgres is a connection
// string; when set, records are written there as well as to Path.
type UsageConfig struct {
	Path     string `yaml:"path"`
	Postgres string `yaml:"postgres,omitempty"`
}

// Dir returns the Scribe home directory.
// - macOS/Linux: ~/.scribe
// - Windows: %USERPROFILE%\.scribe
func Dir() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return ".scribe"
	}

	return filepath.Join(homeDir, ".scribe")
}

// DefaultConfigPath returns the default configuration file path for the current platform.
func DefaultConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns a default config without error.
// Returns an error only if the file exists but cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Providers: make(map[string]ProviderConfig),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Images == "" {
		c.Images = "none"
	}
	if c.StockProvider == "" {
		c.StockProvider = "pexels"
	}
	if c.Media.Dir == "" {
		c.Media.Dir = filepath.Join(Dir(), "media")
	}
	if c.Usage.Path == "" {
		c.Usage.Path = filepath.Join(Dir(), "usage.jsonl")
	}
}

// GetProvider returns the provider config for the given ID.
// Returns nil if the provider is not configured.
func (c *Config) GetProvider(id string) *ProviderConfig {
	if c.Providers == nil {
		return nil
	}
	if pc, ok := c.Providers[id]; ok {
		return &pc
	}
	return nil
}

// Settings exposes the provider section as a settings lookup, keyed the
// way provider constructors read it ("providers.openai.base_url").
// DefaultModel applies to the openai chat model unless the provider
// section names one.
func (c *Config) Settings() core.Settings {
	m := settings.Map{}
	for id, pc := range c.Providers {
		m[core.SettingKey(id, "base_url")] = pc.BaseURL
		m[core.SettingKey(id, "model")] = pc.Model
		m[core.SettingKey(id, "image_model")] = pc.ImageModel
		if pc.RateLimit > 0 {
			m[core.SettingKey(id, "rate_limit")] = strconv.FormatFloat(pc.RateLimit, 'f', -1, 64)
		}
	}
	if key := core.SettingKey("openai", "model"); m[key] == "" && c.DefaultModel != "" {
		m[key] = c.DefaultModel
	}
	return m
}
