package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shelfdesk/shelfdesk/internal/handler/dto"
	"github.com/shelfdesk/shelfdesk/internal/middleware"
	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/service"
)

// CatalogAdmin modifies the catalog.
type CatalogAdmin interface {
	AddBook(ctx context.Context, input service.AddBookInput) (*model.Book, error)
	SetAmount(ctx context.Context, id int64, amount int) (*model.Book, error)
}

// CheckoutOverview lists checkouts across all users.
type CheckoutOverview interface {
	ListAllActive(ctx context.Context, overdueOnly bool, limit int) ([]*model.Checkout, error)
	Policy() service.Policy
}

// UserAdmin reads and corrects member records.
type UserAdmin interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	SetViolations(ctx context.Context, id string, violations int) (*model.User, error)
}

// AdminHandler provides admin-only endpoints for library staff.
type AdminHandler struct {
	catalog   CatalogAdmin
	checkouts CheckoutOverview
	users     UserAdmin
	logger    *slog.Logger
	started   time.Time
	now       func() time.Time
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(catalog CatalogAdmin, checkouts CheckoutOverview, users UserAdmin, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		catalog:   catalog,
		checkouts: checkouts,
		users:     users,
		logger:    logger,
		started:   time.Now(),
		now:       time.Now,
	}
}

// AddBook handles POST /api/v1/admin/books.
func (h *AdminHandler) AddBook(w http.ResponseWriter, r *http.Request) {
	var req dto.AddBookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	book, err := h.catalog.AddBook(r.Context(), service.AddBookInput{
		Author:   req.Author,
		Title:    req.Title,
		Location: req.Location,
		Amount:   req.Amount,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/api/v1/profile/books/"+strconv.FormatInt(book.ID, 10))
	writeJSON(w, http.StatusCreated, dto.ToBookView(book))
}

// SetBookAmount handles PUT /api/v1/admin/books/{id}/amount.
func (h *AdminHandler) SetBookAmount(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Book ID must be an integer")
		return
	}

	var req dto.SetAmountRequest
	if err := decodeJSON(r, &req); err != nil || req.Amount == nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Body must be {\"amount\": <int>}")
		return
	}

	book, err := h.catalog.SetAmount(r.Context(), id, *req.Amount)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToBookView(book))
}

// ListCheckouts handles GET /api/v1/admin/checkouts?overdue=&limit=.
func (h *AdminHandler) ListCheckouts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	overdue := false
	if raw := query.Get("overdue"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_QUERY", "overdue must be true or false")
			return
		}
		overdue = parsed
	}

	limit := service.DefaultAdminListLimit
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	checkouts, err := h.checkouts.ListAllActive(r.Context(), overdue, limit)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	policy := h.checkouts.Policy()
	writeJSON(w, http.StatusOK, dto.ToAdminCheckoutList(checkouts, h.now().UTC(), policy.MaxBorrowDays))
}

// GetUser handles GET /api/v1/admin/users/{id}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserView(user))
}

// SetViolations handles PUT /api/v1/admin/users/{id}/violations.
func (h *AdminHandler) SetViolations(w http.ResponseWriter, r *http.Request) {
	var req dto.SetViolationsRequest
	if err := decodeJSON(r, &req); err != nil || req.Violations == nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Body must be {\"violations\": <int>}")
		return
	}

	user, err := h.users.SetViolations(r.Context(), chi.URLParam(r, "id"), *req.Violations)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserView(user))
}

// StatsResponse represents operational statistics.
type StatsResponse struct {
	Timestamp time.Time      `json:"timestamp"`
	Service   string         `json:"service"`
	Version   string         `json:"version"`
	Uptime    string         `json:"uptime"`
	Policy    service.Policy `json:"policy"`
}

// Stats handles GET /api/v1/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	response := StatsResponse{
		Timestamp: h.now().UTC(),
		Service:   "shelfdesk",
		Version:   Version,
		Uptime:    time.Since(h.started).Truncate(time.Second).String(),
		Policy:    h.checkouts.Policy(),
	}
	writeJSON(w, http.StatusOK, response)
}
