// Package config provides configuration loading and validation for the CLI and the server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/resume-site/internal/llm"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file read when --config is not given
const DefaultPath = "resume_site.toml"

// Duration is a time.Duration written as a Go duration string ("30s", "2m") in TOML
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the complete service configuration. Secrets are never read from the file; they are
// taken from the environment by ApplyEnv.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	LLM       LLMConfig       `toml:"llm"`
	Content   ContentConfig   `toml:"content"`
	Database  DatabaseConfig  `toml:"database"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Logging   LoggingConfig   `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`

	AnthropicAPIKey string `toml:"-"`
	GeminiAPIKey    string `toml:"-"`
	OpenAIAPIKey    string `toml:"-"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port         int      `toml:"port"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	IdleTimeout  Duration `toml:"idle_timeout"`
}

// LLMConfig selects the chat provider
type LLMConfig struct {
	Provider       string  `toml:"provider"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	APIURL         string  `toml:"api_url"`
}

// ContentConfig points at the resume content. An empty Dir means the content built into the binary.
type ContentConfig struct {
	Dir            string `toml:"dir"`
	DefaultVariant string `toml:"default_variant"`
}

// DatabaseConfig enables retrieval-augmented answers when URL is set
type DatabaseConfig struct {
	URL string `toml:"url"`
}

// EmbeddingConfig tunes content ingestion and query embedding
type EmbeddingConfig struct {
	Model       string `toml:"model"`
	BatchSize   int    `toml:"batch_size"`
	Concurrency int    `toml:"concurrency"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json or console
	File   string `toml:"file"`   // rotated log file; empty logs to stderr
}

// RateLimitConfig sets the per-client token buckets of the server. Chat and query call the
// model and get their own, smaller buckets; every other route shares the default one.
type RateLimitConfig struct {
	Enabled         bool     `toml:"enabled"`
	DefaultLimit    int      `toml:"default_limit"`
	DefaultWindow   Duration `toml:"default_window"`
	ChatLimit       int      `toml:"chat_limit"`
	ChatWindow      Duration `toml:"chat_window"`
	QueryLimit      int      `toml:"query_limit"`
	QueryWindow     Duration `toml:"query_window"`
	CleanupInterval Duration `toml:"cleanup_interval"`
	IdleTTL         Duration `toml:"idle_ttl"`
	Whitelist       []string `toml:"whitelist"`
	Blacklist       []string `toml:"blacklist"`
}

// Default returns the configuration used when no file is present
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{2 * time.Minute},
			IdleTimeout:  Duration{60 * time.Second},
		},
		LLM: LLMConfig{
			Provider:       string(llm.ProviderAnthropic),
			Temperature:    llm.DefaultTemperature,
			MaxTokens:      llm.DefaultMaxTokens,
			TimeoutSeconds: int(llm.DefaultTimeout / time.Second),
		},
		Content: ContentConfig{
			DefaultVariant: "default",
		},
		Embedding: EmbeddingConfig{
			Model:       llm.DefaultEmbeddingModel,
			BatchSize:   20,
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			DefaultLimit:    300,
			DefaultWindow:   Duration{time.Minute},
			ChatLimit:       30,
			ChatWindow:      Duration{10 * time.Minute},
			QueryLimit:      30,
			QueryWindow:     Duration{10 * time.Minute},
			CleanupInterval: Duration{5 * time.Minute},
			IdleTTL:         Duration{time.Hour},
		},
	}
}

// LoadConfig loads configuration from a TOML file on top of Default.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config TOML: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault is LoadConfig, except that a missing file yields Default
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		d := Default()
		return &d, nil
	}
	return cfg, err
}

// ApplyEnv overlays secrets and deployment overrides from the environment.
// getenv is os.Getenv outside of tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("ANTHROPIC_API_KEY"); v != "" {
		c.AnthropicAPIKey = v
	}
	if v := getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	if v := getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := getenv("RATE_LIMIT_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.RateLimit.Enabled = enabled
		}
	}
}

// Validate checks that the configuration has valid values.
// Note: missing API keys are not an error here; commands that call a provider check APIKey.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535")
	}
	if _, err := llm.ParseProvider(c.LLM.Provider); err != nil {
		return fmt.Errorf("config error: 'llm.provider': %w", err)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("config error: 'llm.temperature' must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("config error: 'llm.max_tokens' must be non-negative")
	}
	if c.LLM.TimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'llm.timeout_seconds' must be non-negative")
	}
	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("config error: 'embedding.batch_size' must be positive")
	}
	if c.Embedding.Concurrency < 1 {
		return fmt.Errorf("config error: 'embedding.concurrency' must be positive")
	}

	rl := c.RateLimit
	if rl.DefaultLimit < 0 || rl.ChatLimit < 0 || rl.QueryLimit < 0 {
		return fmt.Errorf("config error: 'rate_limit' limits must be non-negative")
	}
	if rl.DefaultWindow.Duration < 0 || rl.ChatWindow.Duration < 0 || rl.QueryWindow.Duration < 0 {
		return fmt.Errorf("config error: 'rate_limit' windows must be non-negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: unknown 'logging.level' %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("config error: unknown 'logging.format' %q", c.Logging.Format)
	}

	// Validate content dir exists (if specified)
	if c.Content.Dir != "" {
		if _, err := os.Stat(c.Content.Dir); os.IsNotExist(err) {
			return fmt.Errorf("config error: content directory not found: %s", c.Content.Dir)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.LLM.Provider == "" {
		result.LLM.Provider = defaults.LLM.Provider
	}
	if result.LLM.Model == "" {
		result.LLM.Model = defaults.LLM.Model
	}
	if result.LLM.APIURL == "" {
		result.LLM.APIURL = defaults.LLM.APIURL
	}
	if result.Content.Dir == "" {
		result.Content.Dir = defaults.Content.Dir
	}
	if result.Content.DefaultVariant == "" {
		result.Content.DefaultVariant = defaults.Content.DefaultVariant
	}
	if result.Database.URL == "" {
		result.Database.URL = defaults.Database.URL
	}
	if result.Embedding.Model == "" {
		result.Embedding.Model = defaults.Embedding.Model
	}
	if result.Logging.Level == "" {
		result.Logging.Level = defaults.Logging.Level
	}
	if result.Logging.Format == "" {
		result.Logging.Format = defaults.Logging.Format
	}
	if result.Logging.File == "" {
		result.Logging.File = defaults.Logging.File
	}

	// Int fields: use default if zero
	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	if result.LLM.MaxTokens == 0 {
		result.LLM.MaxTokens = defaults.LLM.MaxTokens
	}
	if result.LLM.TimeoutSeconds == 0 {
		result.LLM.TimeoutSeconds = defaults.LLM.TimeoutSeconds
	}
	if result.Embedding.BatchSize == 0 {
		result.Embedding.BatchSize = defaults.Embedding.BatchSize
	}
	if result.Embedding.Concurrency == 0 {
		result.Embedding.Concurrency = defaults.Embedding.Concurrency
	}

	// Durations
	mergeDuration(&result.Server.ReadTimeout, defaults.Server.ReadTimeout)
	mergeDuration(&result.Server.WriteTimeout, defaults.Server.WriteTimeout)
	mergeDuration(&result.Server.IdleTimeout, defaults.Server.IdleTimeout)

	rl, drl := &result.RateLimit, defaults.RateLimit
	if rl.DefaultLimit == 0 {
		rl.DefaultLimit = drl.DefaultLimit
	}
	if rl.ChatLimit == 0 {
		rl.ChatLimit = drl.ChatLimit
	}
	if rl.QueryLimit == 0 {
		rl.QueryLimit = drl.QueryLimit
	}
	mergeDuration(&rl.DefaultWindow, drl.DefaultWindow)
	mergeDuration(&rl.ChatWindow, drl.ChatWindow)
	mergeDuration(&rl.QueryWindow, drl.QueryWindow)
	mergeDuration(&rl.CleanupInterval, drl.CleanupInterval)
	mergeDuration(&rl.IdleTTL, drl.IdleTTL)

	// Temperature 0 and rate_limit.enabled = false are valid settings, so they are never merged

	// Secrets
	if result.AnthropicAPIKey == "" {
		result.AnthropicAPIKey = defaults.AnthropicAPIKey
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.OpenAIAPIKey == "" {
		result.OpenAIAPIKey = defaults.OpenAIAPIKey
	}

	return result
}

func mergeDuration(dst *Duration, def Duration) {
	if dst.Duration == 0 {
		*dst = def
	}
}

// APIKey returns the key for the configured chat provider
func (c *Config) APIKey() string {
	p, _ := llm.ParseProvider(c.LLM.Provider)
	switch p {
	case llm.ProviderGemini:
		return c.GeminiAPIKey
	case llm.ProviderOpenAI:
		return c.OpenAIAPIKey
	default:
		return c.AnthropicAPIKey
	}
}

// ChatModel converts the [llm] section into a provider configuration. Validate must have passed.
func (c *Config) ChatModel() *llm.Config {
	p, err := llm.ParseProvider(c.LLM.Provider)
	if err != nil {
		p = llm.ProviderAnthropic
	}
	return &llm.Config{
		Provider:    p,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		Timeout:     time.Duration(c.LLM.TimeoutSeconds) * time.Second,
		APIURL:      c.LLM.APIURL,
	}
}

// Addr returns the listen address for the server
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}
