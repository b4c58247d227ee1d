package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shelfdesk/shelfdesk/internal/auth"
	"github.com/shelfdesk/shelfdesk/internal/model"
)

func scopedRequest(t *testing.T, mw func(http.Handler) http.Handler, scopes []string) *httptest.ResponseRecorder {
	t.Helper()

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile/checkout", nil)
	if scopes != nil {
		req = req.WithContext(auth.ContextWithAuth(req.Context(), &model.AuthContext{
			Method: model.AuthMethodAPIKey,
			KeyID:  "01HKEY",
			UserID: "01HUSER",
			Scopes: scopes,
		}))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireScope(t *testing.T) {
	read, write, admin := model.ScopeRead, model.ScopeWrite, model.ScopeAdmin

	tests := []struct {
		name     string
		held     []string
		required []string
		want     int
	}{
		{"read holds read", []string{read}, []string{read}, http.StatusOK},
		{"write holds write", []string{write}, []string{write}, http.StatusOK},
		{"reader with both scopes borrows", []string{read, write}, []string{write}, http.StatusOK},
		{"admin implies read", []string{admin}, []string{read}, http.StatusOK},
		{"admin implies write", []string{admin}, []string{write}, http.StatusOK},
		{"admin holds admin", []string{admin}, []string{admin}, http.StatusOK},
		{"any of several", []string{write}, []string{read, write}, http.StatusOK},
		{"read cannot borrow", []string{read}, []string{write}, http.StatusForbidden},
		{"write cannot list", []string{write}, []string{read}, http.StatusForbidden},
		{"read is not admin", []string{read}, []string{admin}, http.StatusForbidden},
		{"write is not admin", []string{write}, []string{admin}, http.StatusForbidden},
		{"no scopes", []string{}, []string{read}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := scopedRequest(t, RequireScope(tt.required...), tt.held)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireScope_ForbiddenBody(t *testing.T) {
	rec := scopedRequest(t, RequireWrite(), []string{model.ScopeRead})

	body := rec.Body.String()
	if !strings.Contains(body, `"code":"FORBIDDEN"`) || !strings.Contains(body, "Required scope: write") {
		t.Errorf("body = %s", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRequireScope_NoAuthContext(t *testing.T) {
	rec := scopedRequest(t, RequireRead(), nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rec.Body.String(), `"code":"UNAUTHORIZED"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRequireHelpers_AdminPasses(t *testing.T) {
	for name, mw := range map[string]func() func(http.Handler) http.Handler{
		"RequireRead":  RequireRead,
		"RequireWrite": RequireWrite,
		"RequireAdmin": RequireAdmin,
	} {
		if rec := scopedRequest(t, mw(), []string{model.ScopeAdmin}); rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", name, rec.Code)
		}
	}
}
