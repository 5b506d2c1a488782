// Package health serves the liveness, readiness and status endpoints.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"smartparking/pkg/platform/httputil"
	"smartparking/pkg/platform/middleware/requesttime"
)

// Version is set at build time via ldflags.
var Version = "dev"

const checkTimeout = 2 * time.Second

// CheckFunc checks one dependency. A nil error means it is up.
type CheckFunc func(ctx context.Context) error

type check struct {
	name string
	fn   CheckFunc
}

type Handler struct {
	env     string
	started time.Time

	mu     sync.RWMutex
	checks []check
}

func New(env string) *Handler {
	return &Handler{env: env, started: time.Now()}
}

// RegisterCheck includes fn in the readiness check. Registering a name twice
// replaces the earlier check.
func (h *Handler) RegisterCheck(name string, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.checks {
		if h.checks[i].name == name {
			h.checks[i].fn = fn
			return
		}
	}
	h.checks = append(h.checks, check{name: name, fn: fn})
}

// Register mounts the health endpoints under /health and /api/health.
func (h *Handler) Register(r chi.Router) {
	for _, base := range []string{"/health", "/api/health"} {
		r.Get(base, h.HandleStatus)
		r.Get(base+"/live", h.HandleLiveness)
		r.Get(base+"/ready", h.HandleReadiness)
	}
}

type LivenessResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleReadiness checks every dependency in parallel under one deadline.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := append([]check(nil), h.checks...)
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	results := make([]error, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Go(func() { results[i] = c.fn(ctx) })
	}
	wg.Wait()

	resp := ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(checks))}
	code := http.StatusOK
	for i, c := range checks {
		if err := results[i]; err != nil {
			resp.Checks[c.name] = "down: " + err.Error()
			resp.Status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.name] = "up"
	}
	httputil.WriteJSON(w, code, resp)
}

type StatusResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timestamp     string `json:"timestamp"`
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.env,
		UptimeSeconds: int64(time.Since(h.started) / time.Second),
		Timestamp:     requesttime.Now(r.Context()).UTC().Format(time.RFC3339),
	})
}
