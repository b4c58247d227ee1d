package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	pingOK     = pingFunc(func(context.Context) error { return nil })
	pingRefuse = pingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func serveJSON(t *testing.T, fn http.HandlerFunc, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	fn(rec, httptest.NewRequest(method, target, nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return rec, body
}

func TestHandler_Fallbacks(t *testing.T) {
	h := New()

	tests := []struct {
		name     string
		fn       http.HandlerFunc
		method   string
		wantCode int
		wantKey  string
		wantVal  string
	}{
		{"hello", h.Hello, http.MethodGet, http.StatusOK, "message", "Shelfdesk library checkout API"},
		{"not found", h.NotFound, http.MethodGet, http.StatusNotFound, "code", "NOT_FOUND"},
		{"method not allowed", h.MethodNotAllowed, http.MethodPatch, http.StatusMethodNotAllowed, "code", "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serveJSON(t, tt.fn, tt.method, "/")
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if body[tt.wantKey] != tt.wantVal {
				t.Errorf("%s = %v, want %q", tt.wantKey, body[tt.wantKey], tt.wantVal)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	rec, body := serveJSON(t, NewHealthHandler(pingRefuse, pingRefuse).Healthz, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK || body["status"] != "ok" || body["version"] != Version {
		t.Errorf("healthz = %d %v", rec.Code, body)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		db, cache  Pinger
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{"all healthy", pingOK, pingOK, http.StatusOK, "ok",
			map[string]string{"postgres": "ok", "redis": "ok"}},
		{"database down", pingRefuse, pingOK, http.StatusServiceUnavailable, "unhealthy",
			map[string]string{"postgres": "error: connection refused", "redis": "ok"}},
		{"redis down", pingOK, pingRefuse, http.StatusServiceUnavailable, "unhealthy",
			map[string]string{"postgres": "ok", "redis": "error: connection refused"}},
		{"nothing configured", nil, nil, http.StatusOK, "ok",
			map[string]string{"postgres": "not configured", "redis": "not configured"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.db, tt.cache).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status field = %q, want %q", resp.Status, tt.wantStatus)
			}
			for dep, want := range tt.wantChecks {
				if resp.Checks[dep] != want {
					t.Errorf("checks[%s] = %q, want %q", dep, resp.Checks[dep], want)
				}
			}
		})
	}
}
