// Package config loads peaks settings from a YAML file, a .env file and the
// environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/thesavant42/arquivo-peaks/internal/api"
	"github.com/thesavant42/arquivo-peaks/internal/insights"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given. A missing file is fine.
const DefaultPath = "peaks.yaml"

// Environment variables
const (
	EnvAnthropicKey     = "ANTHROPIC_API_KEY"
	EnvOpenAIKey        = "OPENAI_API_KEY"
	EnvInsightsProvider = "INSIGHTS_PROVIDER"
	EnvAddr             = "PEAKS_ADDR"
	EnvLogLevel         = "PEAKS_LOG_LEVEL"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Insights InsightsConfig `yaml:"insights"`
	LogLevel string         `yaml:"log_level"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ArchiveConfig controls the text search client and the web form defaults
type ArchiveConfig struct {
	BaseURL        string        `yaml:"base_url,omitempty"`
	StartYear      int           `yaml:"start_year"`
	MaxResults     int           `yaml:"max_results"`
	DedupValue     int           `yaml:"dedup_value"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type InsightsConfig struct {
	Provider    string   `yaml:"provider,omitempty"` // "anthropic", "openai" or "none"
	APIKey      string   `yaml:"api_key,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	BaseURL     string   `yaml:"base_url,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
	Temperature *float32 `yaml:"temperature,omitempty"` // unset uses the provider default of 0.7
	Disabled    bool     `yaml:"disabled,omitempty"`
}

// DefaultConfig returns the settings used by the web application
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":5000",
		},
		Archive: ArchiveConfig{
			BaseURL:        api.DefaultTextSearchURL,
			StartYear:      2000,
			MaxResults:     300,
			DedupValue:     api.DefaultDedupValue,
			RequestTimeout: api.DefaultRequestTimeout,
		},
		Insights: InsightsConfig{
			MaxTokens: insights.DefaultMaxTokens,
		},
		LogLevel: "info",
	}
}

// LoadFromPath reads a YAML file over the defaults. The file must exist.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds the effective configuration. An explicit path must exist;
// with an empty path DefaultPath is used when present. A .env file in the
// working directory is loaded into the environment first, without
// overriding variables that are already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var (
		cfg *Config
		err error
	)
	switch {
	case path != "":
		cfg, err = LoadFromPath(path)
	default:
		cfg, err = LoadFromPath(DefaultPath)
		if errors.Is(err, fs.ErrNotExist) {
			cfg, err = DefaultConfig(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables. Empty
// variables count as unset.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(key string) string {
		v, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}

	if v := get(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := get(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := get(EnvInsightsProvider); v != "" {
		c.Insights.Provider = strings.ToLower(v)
	}

	anthropicKey := get(EnvAnthropicKey)
	openAIKey := get(EnvOpenAIKey)

	// Without an explicit provider, prefer whichever key is present.
	if c.Insights.Provider == "" {
		switch {
		case anthropicKey != "" || c.Insights.APIKey != "":
			c.Insights.Provider = insights.ProviderAnthropic
		case openAIKey != "":
			c.Insights.Provider = insights.ProviderOpenAI
		default:
			c.Insights.Provider = insights.ProviderNone
		}
	}

	switch c.Insights.Provider {
	case insights.ProviderAnthropic:
		if anthropicKey != "" {
			c.Insights.APIKey = anthropicKey
		}
	case insights.ProviderOpenAI:
		if openAIKey != "" {
			c.Insights.APIKey = openAIKey
		}
	}
}

// Validate rejects settings no component can work with
func (c *Config) Validate() error {
	switch c.Insights.Provider {
	case "", insights.ProviderAnthropic, insights.ProviderOpenAI, insights.ProviderNone:
	default:
		return fmt.Errorf("unknown insights provider %q", c.Insights.Provider)
	}
	if c.Archive.StartYear < 1990 || c.Archive.StartYear > 9999 {
		return fmt.Errorf("archive.start_year %d out of range", c.Archive.StartYear)
	}
	if c.Archive.MaxResults <= 0 {
		return fmt.Errorf("archive.max_results must be positive, got %d", c.Archive.MaxResults)
	}
	if t := c.Insights.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("insights.temperature must be between 0 and 2, got %v", *t)
	}
	if c.Archive.DedupValue < 0 {
		return fmt.Errorf("archive.dedup_value must not be negative, got %d", c.Archive.DedupValue)
	}
	return nil
}

// InsightsConfig converts the insights section for insights.New
func (c *Config) InsightsConfig() insights.Config {
	return insights.Config{
		Provider:    c.Insights.Provider,
		APIKey:      c.Insights.APIKey,
		Model:       c.Insights.Model,
		BaseURL:     c.Insights.BaseURL,
		MaxTokens:   c.Insights.MaxTokens,
		Temperature: c.Insights.Temperature,
		Disabled:    c.Insights.Disabled,
	}
}

// ClientOptions converts the archive section for api.NewArquivoClient
func (c *Config) ClientOptions() api.ClientOptions {
	return api.ClientOptions{
		BaseURL:        c.Archive.BaseURL,
		DedupValue:     c.Archive.DedupValue,
		RequestTimeout: c.Archive.RequestTimeout,
	}
}
