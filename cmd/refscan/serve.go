package main

import (
	"time"

	"github.com/FocuswithJustin/bibleref/internal/api"
)

// ServeCmd runs the REST and WebSocket API.
type ServeCmd struct {
	ScanFlags
	Port        int           `short:"p" help:"Listen port" default:"8080" env:"REFSCAN_PORT"`
	DB          string        `help:"Index database path; :memory: keeps it in memory" default:":memory:" env:"REFSCAN_DB"`
	URLTemplate string        `name:"url-template" help:"Default link URL template for /rewrite" env:"REFSCAN_URL_TEMPLATE"`
	Origins     []string      `name:"origin" help:"Allowed CORS and WebSocket origins; none allows all" env:"REFSCAN_ORIGINS"`
	APIKey      string        `name:"api-key" help:"Require this key in X-API-Key" env:"REFSCAN_API_KEY"`
	RateLimit   int           `help:"Requests per minute per client; 0 disables" default:"0" env:"REFSCAN_RATE_LIMIT"`
	MaxBody     int64         `help:"Largest accepted request body in bytes" default:"1048576"`
	SlowRequest time.Duration `help:"Log requests slower than this; 0 disables" default:"1s"`
	TLSCert     string        `name:"tls-cert" help:"TLS certificate file" type:"path"`
	TLSKey      string        `name:"tls-key" help:"TLS private key file" type:"path"`
}

func (c *ServeCmd) config() api.Config {
	cfg := api.DefaultConfig()
	cfg.Port = c.Port
	cfg.DBPath = c.DB
	cfg.Scanner = c.ScanFlags.config()
	cfg.URLTemplate = c.URLTemplate
	cfg.AllowedOrigins = c.Origins
	cfg.RateLimitRequests = c.RateLimit
	cfg.MaxBodyBytes = c.MaxBody
	cfg.SlowRequest = c.SlowRequest
	if c.APIKey != "" {
		cfg.Auth = api.AuthConfig{Enabled: true, APIKey: c.APIKey}
	}
	if c.TLSCert != "" || c.TLSKey != "" {
		cfg.TLS = api.TLSConfig{Enabled: true, CertFile: c.TLSCert, KeyFile: c.TLSKey}
	}
	return cfg
}

func (c *ServeCmd) Run(rc *runContext) error {
	return api.Start(rc.ctx, c.config())
}
