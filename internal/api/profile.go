package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/agentciril/ciril/internal/profile"
)

// maxProfileBodySize caps profile update bodies. Profiles with many
// projects are still well under a megabyte.
const maxProfileBodySize = 1 << 20

// profileStore is the profile surface the handler needs.
// *profile.Store satisfies this.
type profileStore interface {
	Profile(ctx context.Context) (*profile.Profile, error)
	Projects(ctx context.Context) ([]profile.Project, error)
	Save(ctx context.Context, p *profile.Profile, projects []profile.Project) error
}

// reindexer rebuilds the knowledge base after profile changes.
// *knowledge.Indexer satisfies this.
type reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// profileHandler serves the public profile view and the admin update.
type profileHandler struct {
	store   profileStore
	indexer reindexer
	logger  *slog.Logger
}

type profilePayload struct {
	Profile  *profile.Profile  `json:"profile"`
	Projects []profile.Project `json:"projects"`
}

// get handles GET /api/v1/profile.
func (h *profileHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Profile(r.Context())
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "no profile has been created yet", h.logger)
			return
		}
		h.logger.Error("loading profile", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to load profile", h.logger)
		return
	}

	projects, err := h.store.Projects(r.Context())
	if err != nil {
		h.logger.Error("loading projects", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to load projects", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, profilePayload{Profile: p, Projects: projects})
}

type updateProfileResponse struct {
	Profile          *profile.Profile  `json:"profile"`
	Projects         []profile.Project `json:"projects"`
	IndexedDocuments int               `json:"indexed_documents"`
}

// update handles PUT /api/v1/profile (admin only). The profile and the
// full project list are replaced together, then the knowledge base is
// rebuilt so the chatbot immediately reflects the changes.
func (h *profileHandler) update(w http.ResponseWriter, r *http.Request) {
	var req profilePayload
	r.Body = http.MaxBytesReader(w, r.Body, maxProfileBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}

	if req.Profile == nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "profile is required", h.logger)
		return
	}
	for _, pr := range req.Projects {
		if strings.TrimSpace(pr.Title) == "" {
			WriteError(w, http.StatusBadRequest, "invalid_request",
				"project title is required", h.logger)
			return
		}
	}

	if err := h.store.Save(r.Context(), req.Profile, req.Projects); err != nil {
		h.logger.Error("saving profile", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to save profile", h.logger)
		return
	}

	indexed, err := h.indexer.Reindex(r.Context())
	if err != nil {
		// The write succeeded; the admin needs to know retrieval is stale.
		h.logger.Error("reindexing after profile update", "error", err)
		WriteError(w, http.StatusBadGateway, "reindex_failed",
			"profile saved but knowledge reindexing failed; retry the update", h.logger)
		return
	}

	p, err := h.store.Profile(r.Context())
	if err != nil {
		h.logger.Error("reloading profile", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to reload profile", h.logger)
		return
	}
	projects, err := h.store.Projects(r.Context())
	if err != nil {
		h.logger.Error("reloading projects", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to reload projects", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, updateProfileResponse{
		Profile:          p,
		Projects:         projects,
		IndexedDocuments: indexed,
	})
}
