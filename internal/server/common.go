// Package server provides shared utilities for HTTP servers.
package server

import (
	"net/http"
	"path/filepath"
	"slices"
	"time"

	"github.com/FocuswithJustin/bibleref/internal/logging"
)

// AbsPath returns the absolute path of a file, or the original path if it fails.
func AbsPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	AllowedOrigins []string // List of allowed origins, empty = allow all (*)
}

// CORSMiddleware adds CORS headers to responses.
// If AllowedOrigins is empty, it defaults to "*" (allow all origins).
// If AllowedOrigins contains specific origins, it validates the request Origin header.
func CORSMiddleware(cfg CORSConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowedOrigin := "*"
		if len(cfg.AllowedOrigins) > 0 {
			if !slices.Contains(cfg.AllowedOrigins, origin) {
				// No CORS headers: the browser blocks the response.
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			allowedOrigin = origin
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		// Only set Allow-Credentials if origin is not "*"
		if allowedOrigin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SlowRequestMiddleware logs a warning for requests that take longer than
// threshold. A zero threshold disables it.
func SlowRequestMiddleware(threshold time.Duration, next http.Handler) http.Handler {
	if threshold <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if d := time.Since(start); d > threshold {
			logging.LoggerFromContext(r.Context()).Warn("slow_request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration_ms", d.Milliseconds())
		}
	})
}
