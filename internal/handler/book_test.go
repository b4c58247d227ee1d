package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shelfdesk/shelfdesk/internal/handler/dto"
	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/service"
)

func TestBookHandler_Search(t *testing.T) {
	books := &fakeBooks{books: []*model.Book{
		{ID: 1, Author: "Tolkien", Title: "The Hobbit", Location: "A-1", Amount: 2},
	}}
	h := NewBookHandler(books, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile/books/search?author=Tolkien", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var views []dto.BookView
	if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(views) != 1 || views[0].Title != "The Hobbit" || views[0].Location != "A-1" {
		t.Errorf("unexpected views: %+v", views)
	}

	if books.gotAuthor == nil || *books.gotAuthor != "Tolkien" {
		t.Errorf("author = %v, want Tolkien", books.gotAuthor)
	}
	if books.gotText != nil {
		t.Errorf("text should be absent, got %q", *books.gotText)
	}
}

func TestBookHandler_SearchParamPresence(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantAuthor bool
		wantText   *string
	}{
		{"none", "", false, nil},
		{"empty text is present", "?text=", false, ptr("")},
		{"both", "?author=X&text=ring", true, ptr("ring")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books := &fakeBooks{books: []*model.Book{{ID: 1}}}
			h := NewBookHandler(books, testLogger())

			rec := httptest.NewRecorder()
			h.Search(rec, httptest.NewRequest(http.MethodGet, "/search"+tt.query, nil))

			if (books.gotAuthor != nil) != tt.wantAuthor {
				t.Errorf("author present = %v, want %v", books.gotAuthor != nil, tt.wantAuthor)
			}
			switch {
			case tt.wantText == nil && books.gotText != nil:
				t.Errorf("text = %q, want absent", *books.gotText)
			case tt.wantText != nil && (books.gotText == nil || *books.gotText != *tt.wantText):
				t.Errorf("text = %v, want %q", books.gotText, *tt.wantText)
			}
		})
	}
}

func TestBookHandler_SearchNoResults(t *testing.T) {
	h := NewBookHandler(&fakeBooks{err: service.ErrNoBooksFound}, testLogger())

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/search?author=Nobody", nil))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body["error"] != "No books found" || body["code"] != "NO_BOOKS_FOUND" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestBookHandler_Get(t *testing.T) {
	books := &fakeBooks{books: []*model.Book{{ID: 7, Author: "Le Guin", Title: "Earthsea", Amount: 1}}}
	h := NewBookHandler(books, testLogger())

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantErr  string
	}{
		{"found", "/books/7", http.StatusOK, ""},
		{"missing", "/books/8", http.StatusUnprocessableEntity, "No book found"},
		{"not numeric", "/books/abc", http.StatusBadRequest, ""},
		{"zero", "/books/0", http.StatusUnprocessableEntity, "No book found"},
		{"negative", "/books/-1", http.StatusUnprocessableEntity, "No book found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(http.MethodGet, "/books/{id}", h.Get, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantErr != "" {
				if body := decodeError(t, rec); body["error"] != tt.wantErr {
					t.Errorf("error = %q, want %q", body["error"], tt.wantErr)
				}
			}
		})
	}
}

func TestBookHandler_InternalError(t *testing.T) {
	h := NewBookHandler(&fakeBooks{err: errors.New("connection reset")}, testLogger())

	rec := serve(http.MethodGet, "/books/{id}", h.Get, httptest.NewRequest(http.MethodGet, "/books/1", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body["code"] != "INTERNAL_ERROR" {
		t.Errorf("code = %q", body["code"])
	}
	if body["error"] == "connection reset" {
		t.Error("internal error details must not leak")
	}
}

func ptr(s string) *string { return &s }
