package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/jonathan/resume-site/internal/types"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if config.APIURL != "" {
		opts = append(opts, option.WithEndpoint(config.APIURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// StreamChat replays the transcript as chat history and streams the reply to the last message
func (c *GeminiClient) StreamChat(ctx context.Context, req ChatRequest) (ChatStream, error) {
	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}

	model := c.client.GenerativeModel(c.config.ModelName())
	model.SetTemperature(float32(req.Temperature))
	model.SetMaxOutputTokens(int32(c.config.maxTokens(req.MaxTokens)))
	if req.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}

	session := model.StartChat()
	session.History = geminiHistory(req.Messages[:len(req.Messages)-1])
	last := req.Messages[len(req.Messages)-1]

	return &geminiStream{iter: session.SendMessageStream(ctx, genai.Text(last.Content))}, nil
}

// Model returns the configured model name
func (c *GeminiClient) Model() string {
	return c.config.ModelName()
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func geminiHistory(messages []types.ChatMessage) []*genai.Content {
	history := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == types.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return history
}

type geminiStream struct {
	iter    *genai.GenerateContentResponseIterator
	current string
	err     error
	done    bool
}

func (s *geminiStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}
	for {
		resp, err := s.iter.Next()
		if errors.Is(err, iterator.Done) {
			s.done = true
			return false
		}
		if err != nil {
			s.err = fmt.Errorf("gemini stream: %w", err)
			return false
		}
		if text := responseText(resp); text != "" {
			s.current = text
			return true
		}
	}
}

func (s *geminiStream) Content() string {
	return s.current
}

func (s *geminiStream) Err() error {
	return s.err
}

// Close is a no-op; the iterator ends with the request context
func (s *geminiStream) Close() error {
	return nil
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

var _ Client = (*GeminiClient)(nil)
