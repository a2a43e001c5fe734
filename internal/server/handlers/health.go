package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/bookmap/internal/server/response"
)

// HandleRoot handles GET / with a short service description.
func (h *Handlers) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"service": "bookmap",
		"version": h.app.Version(),
		"endpoints": []string{
			"analyze-folder-structure",
			"reconcile",
			"analyze-tag-structure",
			"suggest-tags",
			"bulk-assign-tags",
			"bulk-assign-folders",
		},
	})
}

// HandleHealth handles GET /health (liveness). It reports whether an
// oracle API key is configured but never fails on it.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":            "healthy",
		"service":           "bookmap",
		"version":           h.app.Version(),
		"provider":          h.app.ProviderName(),
		"oracle_configured": h.app.OracleConfigured(),
		"uptime":            time.Since(h.startTime).Round(time.Second).String(),
	})
}

// HandleReady handles GET /ready (readiness). The service is ready when
// the oracle can be reached with a configured key.
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	if !h.app.OracleConfigured() {
		response.ServiceUnavailable(w, "no suggestion oracle API key is configured")
		return
	}
	response.OK(w, map[string]any{
		"status":   "ready",
		"provider": h.app.ProviderName(),
		"cache":    h.cache.GetStats(),
	})
}
