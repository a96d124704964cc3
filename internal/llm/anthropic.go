package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/jonathan/resume-site/internal/types"
)

// AnthropicClient implements Client over the Anthropic Messages API
type AnthropicClient struct {
	client anthropic.Client
	config *Config
}

// NewAnthropicClient creates a client for the Messages API. extra options are applied last.
func NewAnthropicClient(config *Config, apiKey string, extra ...option.RequestOption) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: config.timeout()}),
		option.WithMaxRetries(0),
	}
	if config.APIURL != "" {
		opts = append(opts, option.WithBaseURL(config.APIURL))
	}
	return &AnthropicClient{
		client: anthropic.NewClient(append(opts, extra...)...),
		config: config,
	}
}

// StreamChat sends a streaming Messages request. A non-2xx status is returned as *APIError
// before any content is read.
func (c *AnthropicClient) StreamChat(ctx context.Context, req ChatRequest) (ChatStream, error) {
	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.ModelName()),
		MaxTokens:   int64(c.config.maxTokens(req.MaxTokens)),
		Messages:    anthropicMessages(req.Messages),
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		stream.Close()
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &APIError{Provider: ProviderAnthropic, StatusCode: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		return nil, fmt.Errorf("anthropic stream: %w", err)
	}
	return &anthropicStream{stream: stream}, nil
}

// Model returns the configured model name
func (c *AnthropicClient) Model() string {
	return c.config.ModelName()
}

// Close is a no-op; the SDK client holds no per-client resources
func (c *AnthropicClient) Close() error {
	return nil
}

func anthropicMessages(messages []types.ChatMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == types.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

type anthropicStream struct {
	stream  *ssestream.Stream[anthropic.MessageStreamEventUnion]
	current string
	stopped bool
	err     error
}

func (s *anthropicStream) Next() bool {
	if s.stopped || s.err != nil {
		return false
	}
	for s.stream.Next() {
		switch event := s.stream.Current().AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := event.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				s.current = delta.Text
				return true
			}
		case anthropic.MessageStopEvent:
			s.stopped = true
			return false
		}
	}
	s.err = s.stream.Err()
	if s.err == nil {
		// the API always ends with message_stop; anything else is a cut connection
		s.err = io.ErrUnexpectedEOF
	}
	return false
}

func (s *anthropicStream) Content() string {
	return s.current
}

func (s *anthropicStream) Err() error {
	return s.err
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}

var _ Client = (*AnthropicClient)(nil)
