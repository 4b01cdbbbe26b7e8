// Package health exposes liveness and readiness endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"coinwhisperer/pkg/logger"
)

// Checker reports connectivity of one backing service.
type Checker interface {
	Health(ctx context.Context) error
}

// Handler provides health check endpoints. Checks holds one Checker per
// configured backend; the memory backend registers none.
type Handler struct {
	log         *logger.Logger
	checks      map[string]Checker
	startTime   time.Time
	serviceName string
	version     string
	backend     string
}

// New creates a health check handler.
func New(log *logger.Logger, serviceName, version, backend string) *Handler {
	return &Handler{
		log:         log,
		checks:      make(map[string]Checker),
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
		backend:     backend,
	}
}

// AddCheck registers a named backend check.
func (h *Handler) AddCheck(name string, checker Checker) {
	h.checks[name] = checker
}

// Status is the overall health report.
type Status struct {
	Status    string                     `json:"status"` // "healthy" or "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Backend   string                     `json:"backend"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks,omitempty"`
}

// ComponentHealth is the health of a single backing service.
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK while the process is running.
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// HandleReadiness returns 200 only when every registered backend responds.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, healthy := h.runChecks(ctx)

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
		h.log.Warnf("Readiness check failed: %+v", status.Checks)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}

// HandleHealth returns the detailed report, always with 200.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, _ := h.runChecks(ctx)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

func (h *Handler) runChecks(ctx context.Context) (Status, bool) {
	checks := make(map[string]ComponentHealth, len(h.checks))
	healthy := true

	for name, checker := range h.checks {
		start := time.Now()
		component := ComponentHealth{Status: "healthy"}
		if err := checker.Health(ctx); err != nil {
			component.Status = "unhealthy"
			component.Error = err.Error()
			healthy = false
		}
		component.ResponseTime = time.Since(start).String()
		checks[name] = component
	}

	status := Status{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Backend:   h.backend,
		Uptime:    humanize.RelTime(h.startTime, time.Now(), "", ""),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}
	if !healthy {
		status.Status = "unhealthy"
	}
	return status, healthy
}
