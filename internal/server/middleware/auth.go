package middleware

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/osiris/internal/server/response"
)

// AuthConfig holds API-key authentication settings.
type AuthConfig struct {
	APIKey      string
	HeaderName  string
	PublicPaths []string
}

// DefaultAuthConfig leaves health checks and metrics public.
func DefaultAuthConfig(prefix string) AuthConfig {
	return AuthConfig{
		HeaderName:  "X-API-Key",
		PublicPaths: []string{"/health", "/metrics", prefix + "/health", prefix + "/ready"},
	}
}

// Auth rejects requests to non-public paths that lack the configured key.
// The key is read from HeaderName or from an Authorization bearer token.
func Auth(config AuthConfig, logger *zerolog.Logger) Middleware {
	want := []byte(config.APIKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || slices.Contains(config.PublicPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			got := extractAPIKey(r, config.HeaderName)
			if len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				logger.Warn().
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Bool("key_provided", got != "").
					Msg("Authentication failed")
				response.Unauthorized(w, "Invalid or missing API key",
					"Provide a valid API key in the "+config.HeaderName+" header")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractAPIKey(r *http.Request, header string) string {
	if key := r.Header.Get(header); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	// Browsers cannot set headers on WebSocket or EventSource requests.
	return r.URL.Query().Get("api_key")
}
