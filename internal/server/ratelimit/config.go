package ratelimit

import (
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/resume-site/internal/config"
)

// Endpoints with their own buckets. They are the only routes that call the model.
const (
	ChatPath  = "/api/chat"
	QueryPath = "/api/query"
)

// modelBurst lets a visitor fire a few questions back to back before the window rate applies
const modelBurst = 5

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // exact path, or a prefix when it ends in "/"
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // requests per window; 0 means unlimited
	Window time.Duration // refill window
	Burst  int           // defaults to Limit when 0
}

// DefaultConfig is FromSettings applied to the default [rate_limit] section
func DefaultConfig() *Config {
	return FromSettings(config.Default().RateLimit)
}

// FromSettings builds the limiter configuration from the [rate_limit] section of the service
// configuration. Pages and JSON reads share the default limit; chat and query get their own.
func FromSettings(s config.RateLimitConfig) *Config {
	return &Config{
		Enabled:         s.Enabled,
		DefaultLimit:    s.DefaultLimit,
		DefaultWindow:   s.DefaultWindow.Duration,
		CleanupInterval: s.CleanupInterval.Duration,
		IdleTTL:         s.IdleTTL.Duration,
		Whitelist:       addressSet(s.Whitelist),
		Blacklist:       addressSet(s.Blacklist),
		EndpointConfigs: []EndpointConfig{
			{Path: ChatPath, Method: http.MethodPost, Limit: s.ChatLimit, Window: s.ChatWindow.Duration, Burst: modelBurst},
			{Path: QueryPath, Method: http.MethodPost, Limit: s.QueryLimit, Window: s.QueryWindow.Duration, Burst: modelBurst},
		},
	}
}

func addressSet(addrs []string) map[string]bool {
	set := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			set[a] = true
		}
	}
	return set
}
