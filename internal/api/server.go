package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Responder   responder       // Required: answers visitor messages
	ChatLog     historyReader   // Required: admin history view
	Profiles    profileStore    // Required
	Indexer     reindexer       // Required: rebuilds knowledge after profile updates
	Documents   documentIndexer // Required: ingests uploaded documents
	Auth        authenticator   // Required
	Pool        *pgxpool.Pool   // Optional: nil disables pool stats in /ready
	CORSOrigins []string        // Allowed origins for CORS
	IsDev       bool            // Disables HSTS header
	TrustProxy  bool            // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
	RateBurst   int             // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Responder == nil {
		return nil, errors.New("responder is required")
	}
	if cfg.ChatLog == nil {
		return nil, errors.New("chat log is required")
	}
	if cfg.Profiles == nil {
		return nil, errors.New("profile store is required")
	}
	if cfg.Indexer == nil {
		return nil, errors.New("indexer is required")
	}
	if cfg.Documents == nil {
		return nil, errors.New("document indexer is required")
	}
	if cfg.Auth == nil {
		return nil, errors.New("authenticator is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{responder: cfg.Responder, history: cfg.ChatLog, logger: logger}
	ph := &profileHandler{store: cfg.Profiles, indexer: cfg.Indexer, logger: logger}
	ah := &authHandler{auth: cfg.Auth, logger: logger}
	dh := &documentsHandler{indexer: cfg.Documents, logger: logger}

	admin := requireAdmin(cfg.Auth, logger)

	mux := http.NewServeMux()

	// Public surface
	mux.HandleFunc("POST /api/v1/chat", ch.send)
	mux.HandleFunc("GET /api/v1/profile", ph.get)
	mux.HandleFunc("POST /api/v1/auth/login", ah.login)

	// Admin surface
	mux.Handle("GET /api/v1/chat/history", admin(http.HandlerFunc(ch.getHistory)))
	mux.Handle("PUT /api/v1/profile", admin(http.HandlerFunc(ph.update)))
	mux.Handle("GET /api/v1/auth/me", admin(http.HandlerFunc(ah.me)))
	mux.Handle("POST /api/v1/documents", admin(http.HandlerFunc(dh.ingest)))
	mux.Handle("DELETE /api/v1/documents/{title}", admin(http.HandlerFunc(dh.remove)))

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log attributes.
	// CORS must be before RateLimit so preflight OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Wrap with security headers
	isDev := cfg.IsDev
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, isDev)
		handler.ServeHTTP(w, r)
	})

	// Use a top-level mux to separate health probes from middleware stack
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
