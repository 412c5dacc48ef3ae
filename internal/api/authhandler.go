package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/agentciril/ciril/internal/auth"
)

// maxLoginBodySize caps login request bodies.
const maxLoginBodySize = 4 * 1024

// authenticator verifies credentials and issues tokens.
// *auth.Authenticator satisfies this.
type authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	tokenVerifier
}

// tokenVerifier validates session tokens.
type tokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// authHandler serves admin login and session introspection.
type authHandler struct {
	auth   authenticator
	logger *slog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"` // seconds
}

// login handles POST /api/v1/auth/login.
func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Warn("failed login attempt", "ip", r.RemoteAddr)
			WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", h.logger)
			return
		}
		h.logger.Error("login failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "login failed", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(auth.TokenTTL / time.Second),
	})
}

type meResponse struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// me handles GET /api/v1/auth/me (admin only). It exists so the admin
// UI can check whether its stored token is still valid.
func (h *authHandler) me(w http.ResponseWriter, r *http.Request) {
	claims := adminFromContext(r.Context())
	if claims == nil {
		// requireAdmin always runs first; reaching here is a wiring bug.
		WriteError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, meResponse{Email: claims.Email, ExpiresAt: claims.ExpiresAt})
}
