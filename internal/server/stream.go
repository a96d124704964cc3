package server

import (
	"fmt"
	"io"
	"net/http"
)

// StreamWriter writes a plain-text body one fragment at a time, flushing after each
type StreamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

// NewStreamWriter creates a stream writer. It fails when w cannot flush.
func NewStreamWriter(w http.ResponseWriter) (*StreamWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}
	return &StreamWriter{w: w, flusher: flusher}, nil
}

// Start sends the status line and streaming headers. Write calls it when needed.
func (s *StreamWriter) Start() {
	if s.started {
		return
	}
	s.started = true

	h := s.w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	// keeps reverse proxies from buffering the answer
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.flusher.Flush()
}

// Write sends one text fragment verbatim
func (s *StreamWriter) Write(fragment string) error {
	s.Start()
	if fragment == "" {
		return nil
	}
	if _, err := io.WriteString(s.w, fragment); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Started reports whether the response header has been sent
func (s *StreamWriter) Started() bool {
	return s.started
}
