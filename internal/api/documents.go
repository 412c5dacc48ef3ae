package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// maxDocumentBodySize caps document ingestion bodies. The extracted
// text of even a long PDF fits comfortably in 2MB.
const maxDocumentBodySize = 2 << 20

// documentIndexer ingests and removes uploaded documents.
// *knowledge.Indexer satisfies this.
type documentIndexer interface {
	IndexDocument(ctx context.Context, title, description, text string) (int, error)
	RemoveDocument(ctx context.Context, title string) (int64, error)
}

// documentsHandler serves the admin document-ingestion surface.
type documentsHandler struct {
	indexer documentIndexer
	logger  *slog.Logger
}

type ingestDocumentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

type ingestDocumentResponse struct {
	Title         string `json:"title"`
	IndexedChunks int    `json:"indexed_chunks"`
}

// ingest handles POST /api/v1/documents (admin only). The body carries
// a document's extracted text; it is chunked and indexed so the chatbot
// can retrieve it.
func (h *documentsHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestDocumentRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "document title is required", h.logger)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "document text is required", h.logger)
		return
	}

	chunks, err := h.indexer.IndexDocument(r.Context(), req.Title, req.Description, req.Text)
	if err != nil {
		h.logger.Error("indexing document", "document", req.Title, "error", err)
		WriteError(w, http.StatusBadGateway, "index_failed", "failed to index document", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, ingestDocumentResponse{Title: req.Title, IndexedChunks: chunks})
}

type removeDocumentResponse struct {
	Title   string `json:"title"`
	Deleted int64  `json:"deleted"`
}

// remove handles DELETE /api/v1/documents/{title} (admin only).
func (h *documentsHandler) remove(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.PathValue("title"))
	if title == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "document title is required", h.logger)
		return
	}

	deleted, err := h.indexer.RemoveDocument(r.Context(), title)
	if err != nil {
		h.logger.Error("removing document", "document", title, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to remove document", h.logger)
		return
	}
	if deleted == 0 {
		WriteError(w, http.StatusNotFound, "not_found", "no such document", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, removeDocumentResponse{Title: title, Deleted: deleted})
}
