package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfdesk/shelfdesk/internal/handler/dto"
	"github.com/shelfdesk/shelfdesk/internal/middleware"
	"github.com/shelfdesk/shelfdesk/internal/model"
)

// BookFinder looks books up in the catalog.
type BookFinder interface {
	Search(ctx context.Context, author, text *string) ([]*model.Book, error)
	GetByID(ctx context.Context, id int64) (*model.Book, error)
}

// BookHandler handles catalog reads.
type BookHandler struct {
	books  BookFinder
	logger *slog.Logger
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(books BookFinder, logger *slog.Logger) *BookHandler {
	return &BookHandler{books: books, logger: logger}
}

// Search handles GET /api/v1/profile/books/search?author=&text=.
// A parameter is applied only when it is present in the query string.
func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	books, err := h.books.Search(r.Context(), queryParam(query, "author"), queryParam(query, "text"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToBookViews(books))
}

// Get handles GET /api/v1/profile/books/{id}.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Book ID must be an integer")
		return
	}

	book, err := h.books.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToBookView(book))
}

// queryParam returns a pointer to the first value of name, or nil when absent.
func queryParam(query map[string][]string, name string) *string {
	values, ok := query[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
