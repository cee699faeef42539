package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/internal/logging"
)

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Enabled bool
	APIKey  string
}

// minAPIKeyLen is the shortest key accepted when auth is enabled.
const minAPIKeyLen = 16

// AuthMiddleware checks for API key authentication when enabled.
// Requests must include an X-API-Key header with the configured key.
// The root and health endpoints always bypass authentication.
func AuthMiddleware(authCfg AuthConfig, next http.Handler) http.Handler {
	if !authCfg.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicEndpoint(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" && r.URL.Path == "/ws" {
			// Browsers cannot set headers on a WebSocket handshake.
			apiKey = r.URL.Query().Get("api_key")
		}
		if apiKey == "" {
			logging.LoggerFromContext(r.Context()).Warn("unauthorized_request",
				"path", r.URL.Path, "reason", "missing API key")
			respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Missing X-API-Key header")
			return
		}
		if !constantTimeCompare(apiKey, authCfg.APIKey) {
			logging.LoggerFromContext(r.Context()).Warn("unauthorized_request",
				"path", r.URL.Path, "reason", "invalid API key")
			respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isPublicEndpoint returns true if the endpoint should always be accessible
// without authentication.
func isPublicEndpoint(path string) bool {
	return path == "/" || path == "/health"
}

// ValidateAuthConfig validates the authentication configuration.
func ValidateAuthConfig(cfg AuthConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.APIKey == "" {
		return errors.NewValidation("api_key", "", "required when authentication is enabled")
	}
	if len(cfg.APIKey) < minAPIKeyLen {
		return errors.NewValidation("api_key", "",
			"must be at least "+strconv.Itoa(minAPIKeyLen)+" characters (got "+strconv.Itoa(len(cfg.APIKey))+")")
	}
	return nil
}

func constantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
