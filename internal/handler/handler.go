// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shelfdesk/shelfdesk/internal/handler/dto"
	"github.com/shelfdesk/shelfdesk/internal/middleware"
	"github.com/shelfdesk/shelfdesk/internal/service"
)

// Version is reported by the root endpoint and admin stats.
var Version = "0.1.0"

// Handler serves the unauthenticated root and fallback routes.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello reports the service name and version.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "Shelfdesk library checkout API",
		"version": Version,
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// domainErrors maps refusals to their stable code and message. All of them
// are answered with 422.
var domainErrors = []struct {
	err     error
	code    string
	message string
}{
	{service.ErrNoBooksFound, "NO_BOOKS_FOUND", "No books found"},
	{service.ErrNoBookFound, "NO_BOOK_FOUND", "No book found"},
	{service.ErrNoBooksBorrowed, "NO_BOOKS_BORROWED", "No books borrowed"},
	{service.ErrBookUnavailable, "BOOK_UNAVAILABLE", "Book is temporary unavailable"},
	{service.ErrBorrowingProhibited, "BORROWING_PROHIBITED", "Borrowing is prohibited because the violation limit exceeded"},
	{service.ErrCheckoutOfAnotherUser, "CHECKOUT_OF_ANOTHER_USER", "Checkout of another user"},
	{service.ErrNoCheckoutFound, "NO_CHECKOUT_FOUND", "No checkout found"},
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var limitErr *service.LimitError
	if errors.As(err, &limitErr) {
		writeError(w, http.StatusUnprocessableEntity, "LIMIT_REACHED",
			fmt.Sprintf("Borrowing is prohibited because the limit of %d books reached", limitErr.Limit))
		return
	}

	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			writeError(w, http.StatusUnprocessableEntity, de.code, de.message)
			return
		}
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrUnknownUser):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email already registered")
	case errors.Is(err, service.ErrKeyNotFound):
		writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found or already revoked")
	default:
		logger.Error("internal_error",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
