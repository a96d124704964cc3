package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// StatusRecorder captures the status code and body size written by a handler.
// It forwards Flush so streaming handlers keep working behind it.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
	Bytes  int
}

// WriteHeader records the status code
func (s *StatusRecorder) WriteHeader(code int) {
	if s.Status == 0 {
		s.Status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *StatusRecorder) Write(p []byte) (int, error) {
	if s.Status == 0 {
		s.Status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(p)
	s.Bytes += n
	return n, err
}

// Flush implements http.Flusher
func (s *StatusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer
func (s *StatusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Logging logs one line per request with method, path, status, duration and request ID.
// A handler that aborts the response is logged as such and the abort is passed on.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &StatusRecorder{ResponseWriter: w}

			aborted := true
			defer func() {
				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", rec.Status),
					zap.Int("bytes", rec.Bytes),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", GetRequestID(r.Context())),
				}
				switch {
				case aborted:
					logger.Warn("request aborted", fields...)
				case rec.Status >= http.StatusInternalServerError:
					logger.Error("request failed", fields...)
				default:
					logger.Info("request completed", fields...)
				}
			}()

			next.ServeHTTP(rec, r)
			if rec.Status == 0 {
				rec.Status = http.StatusOK
			}
			aborted = false
		})
	}
}
