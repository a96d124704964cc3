package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jonathan/resume-site/internal/llm"
	"github.com/jonathan/resume-site/internal/prompts"
	"github.com/jonathan/resume-site/internal/server/middleware"
	"github.com/jonathan/resume-site/internal/types"
	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// handleChat proxies the visible transcript to the model and streams the answer back as plain
// text. The system instruction is built here; the client only picks a variant.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With(zap.String("request_id", middleware.GetRequestID(r.Context())))

	var req types.ChatRequest
	if err := decodeRequest(w, r, &req, req.Validate); err != nil {
		logger.Debug("rejected chat request", zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), msgInvalidRequest)
		return
	}

	stream, err := s.client.StreamChat(r.Context(), llm.ChatRequest{
		System:      prompts.ChatSystemPrompt(s.library.SystemPromptAddendum(req.Variant)),
		Messages:    req.Messages,
		Temperature: s.temperature,
	})
	if err != nil {
		logger.Error("failed to open chat stream", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, types.ChatFallbackMessage)
		return
	}
	defer stream.Close()

	// Nothing is written until the first delta arrives, so a provider that fails up front
	// still gets a proper error status.
	more := stream.Next()
	if !more {
		if err := stream.Err(); err != nil {
			logger.Error("chat stream failed before first chunk", zap.Error(err))
			s.errorResponse(w, http.StatusInternalServerError, types.ChatFallbackMessage)
			return
		}
	}

	out, err := NewStreamWriter(w)
	if err != nil {
		logger.Error("response writer cannot stream", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, types.ChatFallbackMessage)
		return
	}
	out.Start()

	chunks := 0
	for more {
		if err := out.Write(stream.Content()); err != nil {
			logger.Debug("client went away during chat stream", zap.Error(err))
			return
		}
		chunks++
		more = stream.Next()
	}

	if err := stream.Err(); err != nil {
		if r.Context().Err() != nil {
			logger.Debug("chat stream canceled by client", zap.Int("chunks", chunks))
			return
		}
		logger.Error("chat stream failed mid-answer", zap.Int("chunks", chunks), zap.Error(err))
		// The status line is gone; dropping the connection is the only way to tell the
		// client the answer is incomplete.
		panic(http.ErrAbortHandler)
	}
	logger.Debug("chat stream completed", zap.Int("chunks", chunks))
}

// decodeRequest reads a JSON body into v and runs validate on it
func decodeRequest(w http.ResponseWriter, r *http.Request, v any, validate func() error) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return &ErrValidation{Message: "malformed JSON body: " + err.Error()}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &ErrValidation{Message: "request body must hold a single JSON object"}
	}
	if err := validate(); err != nil {
		return &ErrValidation{Message: err.Error()}
	}
	return nil
}
