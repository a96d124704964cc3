// Package llm provides the chat model providers and the embedding client.
// Every provider streams text deltas through the same ChatStream interface.
package llm

import (
	"fmt"
	"strings"
	"time"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderAnthropic is the Anthropic Messages API
	ProviderAnthropic Provider = "anthropic"
	// ProviderGemini is the Google Gemini API
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is the OpenAI Chat Completions API
	ProviderOpenAI Provider = "openai"
)

// Defaults applied when the configuration leaves a field empty
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
	DefaultTimeout     = 60 * time.Second
)

var defaultModels = map[Provider]string{
	ProviderAnthropic: "claude-sonnet-4-20250514",
	ProviderGemini:    "gemini-2.5-flash",
	ProviderOpenAI:    "gpt-4o-mini",
}

// Config selects and tunes the chat provider
type Config struct {
	Provider    Provider
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// APIURL overrides the provider endpoint. Empty means the public API.
	APIURL string
}

// DefaultConfig returns the default configuration (Anthropic)
func DefaultConfig() *Config {
	return &Config{
		Provider:    ProviderAnthropic,
		Model:       defaultModels[ProviderAnthropic],
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
	}
}

// ParseProvider maps a configuration string to a Provider
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := defaultModels[p]; !ok {
		return "", fmt.Errorf("unknown llm provider %q (want anthropic, gemini or openai)", s)
	}
	return p, nil
}

// ModelName returns the configured model, or the provider default
func (c *Config) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModels[c.Provider]
}

func (c *Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Config) maxTokens(requested int) int {
	if requested > 0 {
		return requested
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return DefaultMaxTokens
}
