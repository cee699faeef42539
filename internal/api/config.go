package api

import (
	"time"

	"github.com/FocuswithJustin/bibleref/core/scan"
	"github.com/FocuswithJustin/bibleref/core/sqlite"
)

// Version is reported by the root endpoint.
const Version = "0.1.0"

// Config holds server configuration.
type Config struct {
	Port              int
	DBPath            string        // Citation index path (sqlite.Memory for a throwaway index)
	Scanner           scan.Config   // Defaults for /extract and indexing; requests may override
	URLTemplate       string        // Default link template for /rewrite
	MaxBodyBytes      int64         // Request body limit
	RateLimitRequests int           // Requests per minute (0 = disabled)
	RateLimitBurst    int           // Burst size
	SlowRequest       time.Duration // Log requests slower than this (0 = off)
	Auth              AuthConfig    // Authentication configuration
	TLS               TLSConfig     // TLS configuration
	WebSocket         WebSocketConfig
	AllowedOrigins    []string // CORS and WebSocket allowed origins (empty = allow all)
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool   // Enable HTTPS
	CertFile string // Path to TLS certificate file
	KeyFile  string // Path to TLS private key file
}

// WebSocketConfig limits what a single /ws client may send.
type WebSocketConfig struct {
	MaxMessageRate int   // Messages per second per client
	MaxMessageSize int64 // Bytes per message
}

// DefaultConfig returns a server on port 8080 with an in-memory index.
func DefaultConfig() Config {
	return Config{
		Port:         8080,
		DBPath:       sqlite.Memory,
		Scanner:      scan.DefaultConfig(),
		MaxBodyBytes: 1 << 20,
		SlowRequest:  time.Second,
		WebSocket: WebSocketConfig{
			MaxMessageRate: 10,
			MaxMessageSize: 64 << 10,
		},
	}
}
