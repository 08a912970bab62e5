package healthprobe

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// HealthChecker provides health and readiness checks.
type HealthChecker struct {
	startTime time.Time
	ready     atomic.Bool

	mu       sync.Mutex
	degraded map[string]bool
}

// New creates a new HealthChecker.
func New() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
	}
}

// SetReady marks the application as ready to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// SetDegraded records which feed categories are currently degraded. A
// degraded feed does not fail readiness; it shows up in the payload so
// operators see the engine is running on partial data.
func (h *HealthChecker) SetDegraded(feeds map[string]bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.degraded = feeds
}

func (h *HealthChecker) degradedFeeds() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []string
	for feed, d := range h.degraded {
		if d {
			out = append(out, feed)
		}
	}
	sort.Strings(out)
	return out
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string   `json:"status"`
	Uptime        string   `json:"uptime"`
	Message       string   `json:"message,omitempty"`
	DegradedFeeds []string `json:"degraded_feeds,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := time.Since(h.startTime)
		resp := HealthResponse{
			Status: "healthy",
			Uptime: uptime.String(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 200 OK if ready, 503 Service Unavailable if not.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			resp := HealthResponse{
				Status:  "not_ready",
				Message: "application is starting",
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		uptime := time.Since(h.startTime)
		resp := HealthResponse{
			Status:        "ready",
			Uptime:        uptime.String(),
			DegradedFeeds: h.degradedFeeds(),
		}
		if len(resp.DegradedFeeds) > 0 {
			resp.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
