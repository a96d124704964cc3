package ratelimit

import (
	"net/http"
	"strings"
)

// unlimited is returned for routes that never consume tokens
var unlimited = EndpointConfig{}

// MatchEndpoint returns the configuration that governs a request, or nil when the default
// limit applies. An exact path wins over a prefix config (a path ending in "/"), and the
// health check is never limited.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && (method == http.MethodGet || method == http.MethodHead) {
		cfg := unlimited
		cfg.Path = path
		return &cfg
	}

	var prefix *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		if c.Path == path {
			return c
		}
		if prefix == nil && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			prefix = c
		}
	}
	return prefix
}
