// Package api provides the JSON REST API server for the portfolio
// chatbot.
//
// # Architecture
//
// The API server uses Go 1.22+ routing with a layered middleware stack:
//
//	Recovery → RequestID → Logging → CORS → RateLimit → Routes
//
// Health probes (/health, /ready) bypass the middleware stack via a
// top-level mux, ensuring they remain fast and unauthenticated.
//
// # Endpoints
//
// Health probes (no middleware):
//   - GET /health — returns {"status":"ok"}
//   - GET /ready  — pings the database, reports pool stats
//
// Public:
//   - POST /api/v1/chat       — chat with the candidate's assistant
//   - GET  /api/v1/profile    — the candidate profile and projects
//   - POST /api/v1/auth/login — exchange admin credentials for a token
//
// Admin (bearer token required):
//   - GET /api/v1/chat/history — review logged conversations
//   - PUT /api/v1/profile      — replace profile and projects, reindex
//   - GET /api/v1/auth/me      — token introspection
//
// # Authentication
//
// The admin surface uses stateless HS256 session tokens issued by
// POST /api/v1/auth/login and carried in the Authorization header.
// Tokens expire after one hour with five minutes of clock leeway.
//
// # Error Handling
//
// All responses use an envelope format:
//
//	Success: {"data": <payload>}
//	Error:   {"error": {"code": "...", "message": "..."}}
//
// # Security
//
// The middleware stack enforces:
//   - Per-IP rate limiting (token bucket, 60 req/min burst)
//   - CORS with explicit origin allowlist
//   - Security headers (CSP, HSTS, X-Frame-Options, etc.)
//   - Request body size caps on every write endpoint
package api
