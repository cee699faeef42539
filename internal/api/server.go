// Package api serves citation extraction, link rewriting and the citation
// index over HTTP, with a WebSocket channel for live extraction.
package api

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/bibleref/core/bible"
	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/scan"
	"github.com/FocuswithJustin/bibleref/core/sqlite"
	"github.com/FocuswithJustin/bibleref/internal/cache"
	"github.com/FocuswithJustin/bibleref/internal/index"
	"github.com/FocuswithJustin/bibleref/internal/linkify"
	"github.com/FocuswithJustin/bibleref/internal/logging"
	"github.com/FocuswithJustin/bibleref/internal/server"
)

// Results of GET /documents?ref= are cached until a document is added or
// deleted, or for queryCacheTTL.
const (
	queryCacheTTL  = 30 * time.Second
	queryCacheSize = 256
)

// Server holds the handlers' shared state.
type Server struct {
	cfg      Config
	store    *index.Store
	registry *bible.Registry
	hub      *Hub
	metrics  *Metrics
	limiter  *RateLimiter
	upgrader *websocket.Upgrader
	queries  *cache.TTLCache[string, []index.Citation]
}

// New validates cfg and builds a Server around store. The hub is not
// running until Run or Start is called.
func New(cfg Config, store *index.Store) (*Server, error) {
	if err := ValidateAuthConfig(cfg.Auth); err != nil {
		return nil, errors.Wrap(err, "invalid auth config")
	}
	if err := cfg.Scanner.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid scanner config")
	}
	if _, err := linkify.New(cfg.URLTemplate); err != nil {
		return nil, errors.Wrap(err, "invalid url template")
	}
	if store == nil {
		return nil, errors.NewValidation("store", "", "an index is required")
	}
	defaults := DefaultConfig()
	if cfg.WebSocket.MaxMessageRate <= 0 {
		cfg.WebSocket.MaxMessageRate = defaults.WebSocket.MaxMessageRate
	}
	if cfg.WebSocket.MaxMessageSize <= 0 {
		cfg.WebSocket.MaxMessageSize = defaults.WebSocket.MaxMessageSize
	}

	s := &Server{
		cfg:      cfg,
		store:    store,
		registry: store.Scanner().Registry(),
		hub:      NewHub(),
		metrics:  NewMetrics(),
		queries:  cache.New[string, []index.Citation](queryCacheTTL, queryCacheSize),
	}
	s.hub.onCount = func(n int) { s.metrics.wsClients.Set(float64(n)) }
	s.upgrader = s.newUpgrader()
	if cfg.RateLimitRequests > 0 {
		s.limiter = NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimitRequests,
			BurstSize:         cfg.RateLimitBurst,
		})
	}
	return s, nil
}

// Run runs the WebSocket hub until ctx is done.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.routes()
	handler = server.SecurityHeadersWithCSP(server.APICSPConfig(), handler)
	handler = AuthMiddleware(s.cfg.Auth, handler)
	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}
	handler = server.CORSMiddleware(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, handler)
	handler = server.SlowRequestMiddleware(s.cfg.SlowRequest, handler)
	return logging.CombinedMiddleware(handler)
}

// routes configures all HTTP routes.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	m := s.metrics

	mux.Handle("/", m.instrument("/", s.handleRoot))
	mux.Handle("GET /health", m.instrument("/health", s.handleHealth))
	mux.Handle("GET /books", m.instrument("/books", s.handleBooks))
	mux.Handle("POST /extract", m.instrument("/extract", s.handleExtract))
	mux.Handle("POST /rewrite", m.instrument("/rewrite", s.handleRewrite))
	mux.Handle("GET /documents", m.instrument("/documents", s.handleDocuments))
	mux.Handle("POST /documents", m.instrument("/documents", s.handleAddDocument))
	mux.Handle("GET /documents/{id}", m.instrument("/documents/{id}", s.handleGetDocument))
	mux.Handle("DELETE /documents/{id}", m.instrument("/documents/{id}", s.handleDeleteDocument))
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.Handle("GET /metrics", m.Handler())

	return mux
}

// Start opens the index at cfg.DBPath and serves until ctx is done, then
// shuts down gracefully.
func Start(ctx context.Context, cfg Config) error {
	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			return errors.NewValidation("tls", "", "TLS enabled but cert or key file not specified")
		}
		for _, f := range []string{cfg.TLS.CertFile, cfg.TLS.KeyFile} {
			if _, err := os.Stat(f); err != nil {
				return errors.NewIO("stat", f, err)
			}
		}
	}

	scanner, err := scan.New(cfg.Scanner)
	if err != nil {
		return err
	}
	store, err := index.Open(ctx, cfg.DBPath, index.WithScanner(scanner))
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := New(cfg, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.Run(ctx)

	protocol, wsProtocol := "http", "ws"
	if cfg.TLS.Enabled {
		protocol, wsProtocol = "https", "wss"
		logging.Info("TLS enabled", "cert_file", cfg.TLS.CertFile)
	}
	dbPath := cfg.DBPath
	if dbPath != sqlite.Memory {
		dbPath = server.AbsPath(dbPath)
	}
	logging.ServerStartup("rest_api", protocol, cfg.Port,
		"websocket_protocol", wsProtocol,
		"index", dbPath,
		"auth", cfg.Auth.Enabled,
		"rate_limit", cfg.RateLimitRequests,
		"allowed_origins", len(cfg.AllowedOrigins))

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		if cfg.TLS.Enabled {
			errc <- srv.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			errc <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errc:
		return errors.NewIO("listen", srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.NewIO("shutdown", srv.Addr, err)
	}
	logging.Info("server stopped")
	return nil
}
