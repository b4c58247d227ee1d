package handler

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const readinessTimeout = 5 * time.Second

// Pinger is a dependency the readiness probe can reach.
type Pinger interface {
	Ping(ctx context.Context) error
}

type dependency struct {
	name   string
	pinger Pinger
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	deps []dependency
}

// NewHealthHandler wires the probes to Postgres and Redis. A nil pinger is
// reported as "not configured" and does not fail readiness.
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{deps: []dependency{
		{name: "postgres", pinger: db},
		{name: "redis", pinger: cache},
	}}
}

// HealthResponse is the body of both probes.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Healthz reports that the process is up.
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: Version})
}

// Readyz pings every dependency in parallel and answers 503 if any fails.
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	results := make([]string, len(h.deps))
	var wg sync.WaitGroup
	for i, dep := range h.deps {
		if dep.pinger == nil {
			results[i] = "not configured"
			continue
		}
		wg.Add(1)
		go func(i int, p Pinger) {
			defer wg.Done()
			if err := p.Ping(ctx); err != nil {
				results[i] = "error: " + err.Error()
				return
			}
			results[i] = "ok"
		}(i, dep.pinger)
	}
	wg.Wait()

	resp := HealthResponse{Status: "ok", Version: Version, Checks: make(map[string]string, len(h.deps))}
	code := http.StatusOK
	for i, dep := range h.deps {
		resp.Checks[dep.name] = results[i]
		if dep.pinger != nil && results[i] != "ok" {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, resp)
}
