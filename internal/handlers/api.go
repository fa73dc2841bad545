package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/common"
	"github.com/prolabora/concilia/internal/interfaces"
)

// APIHandler serves health, version and status endpoints
type APIHandler struct {
	filing  interfaces.FilingService
	storage interfaces.StorageManager
	logger  arbor.ILogger
	started time.Time
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(filing interfaces.FilingService, storage interfaces.StorageManager, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		filing:  filing,
		storage: storage,
		logger:  logger,
		started: time.Now(),
	}
}

// HealthHandler handles GET /health
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "concilia",
	})
}

// VersionHandler handles GET /api/version
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"full":    common.GetFullVersion(),
	})
}

// StatusHandler handles GET /api/status
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	totalJobs, err := h.storage.JobStorage().CountJobs(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to count jobs for status")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "running",
		"version":        common.GetVersion(),
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"active_jobs":    h.filing.ActiveCount(),
		"total_jobs":     totalJobs,
	})
}
