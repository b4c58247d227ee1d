package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsRequest(t *testing.T, cfg CORSConfig, method, origin string) *httptest.ResponseRecorder {
	t.Helper()

	handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/api/v1/profile/books/search", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantStatus int
		wantOrigin string
	}{
		{"nothing configured", nil, "https://desk.example.org", http.MethodGet, http.StatusOK, ""},
		{"listed origin", []string{"https://desk.example.org"}, "https://desk.example.org", http.MethodGet, http.StatusOK, "https://desk.example.org"},
		{"unlisted preflight", []string{"https://desk.example.org"}, "https://evil.test", http.MethodOptions, http.StatusForbidden, ""},
		{"unlisted request passes without headers", []string{"https://desk.example.org"}, "https://evil.test", http.MethodPost, http.StatusOK, ""},
		{"listed preflight", []string{"https://desk.example.org"}, "https://desk.example.org", http.MethodOptions, http.StatusNoContent, "https://desk.example.org"},
		{"case folded", []string{"HTTPS://DESK.EXAMPLE.ORG"}, "https://desk.example.org", http.MethodGet, http.StatusOK, "https://desk.example.org"},
		{"no origin header", []string{"https://desk.example.org"}, "", http.MethodGet, http.StatusOK, ""},
		{"wildcard subdomain", []string{"*.example.org"}, "https://branch.example.org", http.MethodGet, http.StatusOK, "https://branch.example.org"},
		{"wildcard rejects lookalike", []string{"*.example.org"}, "https://badexample.org", http.MethodGet, http.StatusOK, ""},
		{"wildcard rejects apex", []string{"*.example.org"}, "https://example.org", http.MethodOptions, http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCORSConfig()
			cfg.AllowedOrigins = tt.allowed

			rec := corsRequest(t, cfg, tt.method, tt.origin)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestCORS_PreflightHeaders(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://desk.example.org"}

	rec := corsRequest(t, cfg, http.MethodOptions, "https://desk.example.org")

	want := map[string]string{
		"Access-Control-Allow-Methods":  "GET, POST, PUT, DELETE, OPTIONS",
		"Access-Control-Max-Age":        "86400",
		"Access-Control-Expose-Headers": "Location, Retry-After, X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset",
		"Vary":                          "Origin",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
	if rec.Header().Get("Access-Control-Allow-Headers") == "" {
		t.Error("Access-Control-Allow-Headers not set on preflight")
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("credentials header set without AllowCredentials")
	}
}

func TestCORS_SimpleRequestOmitsPreflightHeaders(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://desk.example.org"}
	cfg.AllowCredentials = true

	rec := corsRequest(t, cfg, http.MethodGet, "https://desk.example.org")

	if rec.Header().Get("Access-Control-Allow-Methods") != "" {
		t.Error("Access-Control-Allow-Methods set on a non-preflight request")
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want true", got)
	}
}
