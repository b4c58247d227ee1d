package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shelfdesk/shelfdesk/internal/auth"
	"github.com/shelfdesk/shelfdesk/internal/handler/dto"
	"github.com/shelfdesk/shelfdesk/internal/middleware"
	"github.com/shelfdesk/shelfdesk/internal/model"
)

// CheckoutManager runs the borrow and return lifecycle for one user.
type CheckoutManager interface {
	ListActive(ctx context.Context, userID string) ([]*model.Checkout, error)
	Create(ctx context.Context, bookID int64, userID string) (*model.Checkout, error)
	Checkin(ctx context.Context, checkoutID int64, userID string) error
}

// CheckoutHandler handles the caller's own checkouts.
type CheckoutHandler struct {
	checkouts CheckoutManager
	baseURL   string
	logger    *slog.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler. baseURL prefixes the
// Location header of created checkouts.
func NewCheckoutHandler(checkouts CheckoutManager, baseURL string, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkouts: checkouts, baseURL: baseURL, logger: logger}
}

// List handles GET /api/v1/profile/checkout.
func (h *CheckoutHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	checkouts, err := h.checkouts.ListActive(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCheckoutViews(checkouts))
}

// Create handles POST /api/v1/profile/checkout?id={bookId}.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	bookID, err := middleware.ParseID(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Query parameter 'id' must be an integer")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	checkout, err := h.checkouts.Create(r.Context(), bookID, userID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", h.baseURL+"/api/v1/profile/checkout/"+strconv.FormatInt(checkout.ID, 10))
	writeJSON(w, http.StatusCreated, dto.ToCheckoutView(checkout))
}

// Checkin handles PUT /api/v1/profile/checkout?id={checkoutId}.
func (h *CheckoutHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	checkoutID, err := middleware.ParseID(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Query parameter 'id' must be an integer")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if err := h.checkouts.Checkin(r.Context(), checkoutID, userID); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
