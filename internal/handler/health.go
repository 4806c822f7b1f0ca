package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is a dependency the readiness check can ping.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck names one dependency of the console. A failing required
// check makes the console unready; a failing optional one only degrades it.
type ReadinessCheck struct {
	Name     string
	Checker  HealthChecker
	Required bool
}

// HealthHandler serves the liveness and readiness checks.
type HealthHandler struct {
	checks  []ReadinessCheck
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler. Checks with a nil Checker are
// reported as not configured.
func NewHealthHandler(checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 5 * time.Second}
}

// HealthResponse is the body of both checks.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz answers 200 while the process serves requests.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings every dependency. Redis holds every session and must
// answer. The bookbase API is optional: the console still serves its error
// pages while it is down.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	code := http.StatusOK

	for _, c := range h.checks {
		if c.Checker == nil {
			resp.Checks[c.Name] = "not configured"
			continue
		}
		if err := c.Checker.Ping(ctx); err != nil {
			resp.Checks[c.Name] = "error: " + err.Error()
			switch {
			case c.Required:
				resp.Status = "unhealthy"
				code = http.StatusServiceUnavailable
			case resp.Status == "ok":
				resp.Status = "degraded"
			}
			continue
		}
		resp.Checks[c.Name] = "ok"
	}

	writeJSON(w, code, resp)
}
