package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonathan/resume-site/internal/types"
)

// ChatPath is the server endpoint the HTTP transport posts to
const ChatPath = "/api/chat"

// Transport carries one turn to the server and returns the streamed answer body.
// The body must be closed by the caller; cancelling ctx aborts both the request and the body.
type Transport interface {
	Send(ctx context.Context, messages []types.ChatMessage) (io.ReadCloser, error)
}

// StatusError is a non-2xx answer from the chat endpoint
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat endpoint returned status %d", e.StatusCode)
}

// HTTPTransport posts the transcript as JSON to BaseURL + /api/chat
type HTTPTransport struct {
	BaseURL string
	// Client defaults to http.DefaultClient. It must not set a Timeout shorter than an answer.
	Client *http.Client
	// Variant is sent with every request so the server can add that variant's prompt addendum
	Variant string
}

// Send posts the transcript and returns the response body on a 2xx status
func (t *HTTPTransport) Send(ctx context.Context, messages []types.ChatMessage) (io.ReadCloser, error) {
	payload, err := json.Marshal(types.ChatRequest{Messages: messages, Variant: t.Variant})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := strings.TrimRight(t.BaseURL, "/") + ChatPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/plain")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp.Body, nil
}

var _ Transport = (*HTTPTransport)(nil)
