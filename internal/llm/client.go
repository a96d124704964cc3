package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/resume-site/internal/types"
)

// ChatRequest is one completion call: a system instruction plus the visible transcript
type ChatRequest struct {
	System   string
	Messages []types.ChatMessage
	// Temperature is sent as is. Zero is a valid temperature.
	Temperature float64
	// MaxTokens overrides the configured limit when positive
	MaxTokens int
}

// ChatStream yields text deltas from the model.
// Next returns false at the end of the stream or on error; Err tells the two apart.
type ChatStream interface {
	Next() bool
	Content() string
	Err() error
	Close() error
}

// Client is an abstraction over LLM providers
type Client interface {
	// StreamChat opens a streaming completion
	StreamChat(ctx context.Context, req ChatRequest) (ChatStream, error)
	// Model returns the provider model name used for requests
	Model() string
	// Close releases any resources held by the client
	Close() error
}

// ErrNoMessages is returned when a request carries no transcript
var ErrNoMessages = errors.New("at least one message is required")

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%s API key is required", config.Provider)
	}

	switch config.Provider {
	case ProviderAnthropic:
		return NewAnthropicClient(config, apiKey), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(config, apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", config.Provider)
	}
}

// Collect drains a stream into one string and closes it
func Collect(stream ChatStream) (string, error) {
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		sb.WriteString(stream.Content())
	}
	if err := stream.Err(); err != nil {
		return sb.String(), err
	}
	return sb.String(), nil
}

// Complete runs a request to completion and returns the full text
func Complete(ctx context.Context, client Client, req ChatRequest) (string, error) {
	stream, err := client.StreamChat(ctx, req)
	if err != nil {
		return "", err
	}
	text, err := Collect(stream)
	if err != nil {
		return "", fmt.Errorf("stream failed: %w", err)
	}
	return text, nil
}

// APIError is a non-2xx answer from a provider.
// Body is kept for logs and never shown to visitors.
type APIError struct {
	Provider   Provider
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}
