package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/agentciril/ciril/internal/assistant"
	"github.com/agentciril/ciril/internal/chatlog"
)

// maxChatBodySize caps chat request bodies. Visitor messages are short;
// anything larger is abuse.
const maxChatBodySize = 64 * 1024

// responder answers visitor messages. *assistant.Assistant satisfies this.
type responder interface {
	Reply(ctx context.Context, visitorID, message string) (*assistant.Reply, error)
}

// historyReader lists logged messages. *chatlog.Store satisfies this.
type historyReader interface {
	History(ctx context.Context, f chatlog.Filter) ([]chatlog.Message, error)
	Count(ctx context.Context) (int64, error)
}

// chatHandler serves the public chat endpoint and the admin history view.
type chatHandler struct {
	responder responder
	history   historyReader
	logger    *slog.Logger
}

type chatRequest struct {
	Message   string `json:"message"`
	VisitorID string `json:"visitor_id"`
}

type chatResponse struct {
	Response    string `json:"response"`
	VisitorID   string `json:"visitor_id"`
	QueryTimeMS int64  `json:"query_time_ms"`
}

// send handles POST /api/v1/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}

	visitorID := strings.TrimSpace(req.VisitorID)
	if visitorID == "" {
		visitorID = uuid.NewString()
	}

	reply, err := h.responder.Reply(r.Context(), visitorID, req.Message)
	if err != nil {
		// Reply only errors on context cancellation; the client is gone.
		h.logger.Debug("chat request canceled", "visitor_id", visitorID, "error", err)
		return
	}

	WriteJSON(w, http.StatusOK, chatResponse{
		Response:    reply.Text,
		VisitorID:   visitorID,
		QueryTimeMS: reply.QueryTimeMS,
	})
}

type historyResponse struct {
	Messages []chatlog.Message `json:"messages"`
	Total    int64             `json:"total"`
}

// getHistory handles GET /api/v1/chat/history (admin only).
// Query parameters: visitor_id (optional), limit (optional).
func (h *chatHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	filter := chatlog.Filter{
		VisitorID: r.URL.Query().Get("visitor_id"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			WriteError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer", h.logger)
			return
		}
		filter.Limit = limit
	}

	messages, err := h.history.History(r.Context(), filter)
	if err != nil {
		h.logger.Error("listing chat history", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to list chat history", h.logger)
		return
	}

	total, err := h.history.Count(r.Context())
	if err != nil {
		h.logger.Error("counting chat messages", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to count chat messages", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, historyResponse{Messages: messages, Total: total})
}
