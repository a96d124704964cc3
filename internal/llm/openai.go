package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonathan/resume-site/internal/types"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

// OpenAIClient implements Client over the OpenAI Chat Completions API
type OpenAIClient struct {
	client openai.Client
	config *Config
}

// NewOpenAIClient creates a new OpenAI chat client
func NewOpenAIClient(config *Config, apiKey string, extra ...option.RequestOption) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(openAIOptions(config.APIURL, apiKey, config.timeout(), extra)...),
		config: config,
	}
}

// StreamChat opens a streaming chat completion. Connection and status errors surface here;
// errors in the event stream surface through the returned stream.
func (c *OpenAIClient) StreamChat(ctx context.Context, req ChatRequest) (ChatStream, error) {
	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.config.ModelName()),
		Messages:    openAIMessages(req.System, req.Messages),
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(c.config.maxTokens(req.MaxTokens))),
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("openai stream: %w", err)
	}
	return &openAIStream{stream: stream}, nil
}

// Model returns the configured model name
func (c *OpenAIClient) Model() string {
	return c.config.ModelName()
}

// Close is a no-op for the OpenAI client
func (c *OpenAIClient) Close() error {
	return nil
}

func openAIMessages(system string, messages []types.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, m := range messages {
		if m.Role == types.RoleAssistant {
			out = append(out, openai.AssistantMessage(m.Content))
		} else {
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

type openAIStream struct {
	stream  *ssestream.Stream[openai.ChatCompletionChunk]
	current string
}

func (s *openAIStream) Next() bool {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		s.current = chunk.Choices[0].Delta.Content
		return true
	}
	return false
}

func (s *openAIStream) Content() string {
	return s.current
}

func (s *openAIStream) Err() error {
	return s.stream.Err()
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}

func openAIOptions(apiURL, apiKey string, timeout time.Duration, extra []option.RequestOption) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if apiURL != "" {
		opts = append(opts, option.WithBaseURL(apiURL))
	}
	return append(opts, extra...)
}

var _ Client = (*OpenAIClient)(nil)
