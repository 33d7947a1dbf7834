package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/relaydoc/relaydoc/pkg/docstore"
)

// HealthHandler serves the liveness and readiness probes.
//
// Health endpoints are unauthenticated:
//   - Liveness: is the server process running?
//   - Readiness: is the document store reachable?
type HealthHandler struct {
	store     *docstore.DocumentStore
	startTime time.Time
}

func NewHealthHandler(store *docstore.DocumentStore) *HealthHandler {
	return &HealthHandler{store: store, startTime: time.Now()}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	WriteJSONOK(w, healthyResponse(map[string]any{
		"service":    "relaydoc",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready. It probes the document store by
// loading a sentinel document id that is never written to; any backend
// error (not "not found", which is nil/nil) indicates the backend is
// unreachable.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("document store not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.store.GetDocument(ctx, "__relaydoc_health_probe__"); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
		return
	}

	WriteJSONOK(w, healthyResponse(nil))
}
