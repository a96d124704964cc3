package types

import (
	"github.com/go-playground/validator/v10"
)

// Chat roles accepted on the wire
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatFallbackMessage is the only failure text ever shown to a visitor
const ChatFallbackMessage = "I'm having trouble connecting. Want to try again?"

// ChatMessage is one transcript entry as sent to /api/chat (role and content only)
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest is the request body for /api/chat
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	// Variant selects a static system prompt addendum; it never carries prompt text.
	Variant string `json:"variant,omitempty" validate:"omitempty,max=64"`
}

// Validate validates the ChatRequest using the validator.
func (r *ChatRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// QueryRequest is the request body for /api/query
type QueryRequest struct {
	Query string `json:"query" validate:"required,min=1,max=500"`
	TopK  int    `json:"top_k,omitempty" validate:"omitempty,min=1,max=20"`
}

// Validate validates the QueryRequest using the validator.
func (r *QueryRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// QueryResponse is the response body for /api/query
type QueryResponse struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// ErrorResponse is the fixed-shape error payload
type ErrorResponse struct {
	Error string `json:"error"`
}
