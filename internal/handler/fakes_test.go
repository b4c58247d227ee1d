package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/shelfdesk/shelfdesk/internal/auth"
	"github.com/shelfdesk/shelfdesk/internal/model"
	"github.com/shelfdesk/shelfdesk/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBooks struct {
	books      []*model.Book
	err        error
	gotAuthor  *string
	gotText    *string
	searchHits int
}

func (f *fakeBooks) Search(_ context.Context, author, text *string) ([]*model.Book, error) {
	f.searchHits++
	f.gotAuthor, f.gotText = author, text
	if f.err != nil {
		return nil, f.err
	}
	return f.books, nil
}

func (f *fakeBooks) GetByID(_ context.Context, id int64) (*model.Book, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, b := range f.books {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, service.ErrNoBookFound
}

type fakeCheckouts struct {
	active    []*model.Checkout
	created   *model.Checkout
	err       error
	gotUser   string
	gotID     int64
	checkedIn bool
}

func (f *fakeCheckouts) ListActive(_ context.Context, userID string) ([]*model.Checkout, error) {
	f.gotUser = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.active, nil
}

func (f *fakeCheckouts) Create(_ context.Context, bookID int64, userID string) (*model.Checkout, error) {
	f.gotUser, f.gotID = userID, bookID
	if f.err != nil {
		return nil, f.err
	}
	return f.created, nil
}

func (f *fakeCheckouts) Checkin(_ context.Context, checkoutID int64, userID string) error {
	f.gotUser, f.gotID = userID, checkoutID
	if f.err != nil {
		return f.err
	}
	f.checkedIn = true
	return nil
}

// withUser attaches an authenticated reader to the request.
func withUser(r *http.Request, userID string, scopes ...string) *http.Request {
	return r.WithContext(auth.ContextWithAuth(r.Context(), &model.AuthContext{
		Method: model.AuthMethodBasic,
		UserID: userID,
		Scopes: scopes,
	}))
}

// serve routes a single request through a chi router so URL params resolve.
func serve(method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonBody(v string) io.Reader {
	return strings.NewReader(v)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v (raw %q)", err, rec.Body.String())
	}
	return body
}
