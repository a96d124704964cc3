// Package server provides the HTTP surface of the resume site: the rendered pages, the JSON
// content API and the streaming chat bridge to the language model.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/resume-site/internal/config"
	"github.com/jonathan/resume-site/internal/llm"
	"github.com/jonathan/resume-site/internal/rendering"
	"github.com/jonathan/resume-site/internal/retrieval"
	"github.com/jonathan/resume-site/internal/server/middleware"
	"github.com/jonathan/resume-site/internal/server/ratelimit"
	"github.com/jonathan/resume-site/internal/variants"
	"go.uber.org/zap"
)

// shutdownTimeout bounds how long in-flight requests get once shutdown starts
const shutdownTimeout = 30 * time.Second

// healthTimeout bounds the database check of /health
const healthTimeout = 2 * time.Second

// Answerer answers questions from the document corpus
type Answerer interface {
	Answer(ctx context.Context, query string, topK int) (*retrieval.Answer, error)
}

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the server's dependencies and settings
type Config struct {
	Server config.ServerConfig
	// Temperature is sent with every chat request
	Temperature float64

	Library  *variants.Library
	Client   llm.Client
	Renderer *rendering.Renderer
	// Answerer enables POST /api/query when set
	Answerer Answerer
	// Database is checked by /health when set
	Database Pinger
	// RateLimit defaults to ratelimit.DefaultConfig() when nil
	RateLimit *ratelimit.Config
	Logger    *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	library     *variants.Library
	client      llm.Client
	renderer    *rendering.Renderer
	answerer    Answerer
	database    Pinger
	temperature float64
	rateLimiter *ratelimit.Limiter
	logger      *zap.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Library == nil {
		return nil, fmt.Errorf("content library is required")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if cfg.Renderer == nil {
		r, err := rendering.NewRenderer()
		if err != nil {
			return nil, fmt.Errorf("failed to create renderer: %w", err)
		}
		cfg.Renderer = r
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit = ratelimit.DefaultConfig()
	}

	s := &Server{
		library:     cfg.Library,
		client:      cfg.Client,
		renderer:    cfg.Renderer,
		answerer:    cfg.Answerer,
		database:    cfg.Database,
		temperature: cfg.Temperature,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		logger:      cfg.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/variants", s.handleVariants)
	mux.HandleFunc("GET /api/resume/{variant...}", s.handleResume)
	if s.answerer != nil {
		mux.HandleFunc("POST /api/query", s.handleQuery)
	}
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{variant...}", s.handlePage)

	s.httpServer = &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      middleware.RequestID(s.withRateLimit(middleware.Logging(s.logger)(s.withCORS(mux)))),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration, // bounds a whole streamed chat answer
		IdleTimeout:  cfg.Server.IdleTimeout.Duration,
		ErrorLog:     zap.NewStdLog(s.logger),
	}

	return s, nil
}

// Handler returns the server's root handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured address and serves until ctx is done
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)

	// Stop rate limiter cleanup goroutine
	s.rateLimiter.Stop()

	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.database.Ping(ctx); err != nil {
			s.logger.Warn("database health check failed", zap.Error(err))
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "degraded",
				"database": "unreachable",
			})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// It uses the IP address from RemoteAddr; forwarded headers are not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Info("rate limit exceeded",
		zap.String("path", r.URL.Path),
		zap.String("client", s.extractClientID(r)),
		zap.Int("limit", info.Limit),
		zap.Time("reset_at", info.ResetTime),
		zap.String("request_id", middleware.GetRequestID(r.Context())))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
