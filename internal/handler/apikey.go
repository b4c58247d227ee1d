package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfdesk/shelfdesk/internal/auth"
	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/service"
)

// KeyManager issues and manages API keys for their owner.
type KeyManager interface {
	Issue(ctx context.Context, input service.IssueKeyInput) (*model.APIKeyCreateResponse, error)
	List(ctx context.Context, userID string) ([]model.APIKeyResponse, error)
	Revoke(ctx context.Context, userID, keyID string) error
	Rotate(ctx context.Context, userID, keyID string) (*model.APIKeyRotateResponse, error)
}

// APIKeyHandler handles API key management endpoints.
type APIKeyHandler struct {
	keys   KeyManager
	logger *slog.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(keys KeyManager, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{keys: keys, logger: logger}
}

// CreateAPIKey handles POST /api/v1/api-keys.
// The plaintext key is only ever returned here.
func (h *APIKeyHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req model.APIKeyCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	created, err := h.keys.Issue(r.Context(), service.IssueKeyInput{
		UserID: authCtx.UserID,
		Name:   req.Name,
		Scopes: req.Scopes,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// ListAPIKeys handles GET /api/v1/api-keys.
func (h *APIKeyHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keys.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

// RevokeAPIKey handles DELETE /api/v1/api-keys/{key_id}.
func (h *APIKeyHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	err := h.keys.Revoke(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "key_id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RotateAPIKey handles POST /api/v1/api-keys/{key_id}/rotate.
func (h *APIKeyHandler) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	rotated, err := h.keys.Rotate(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "key_id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, rotated)
}
