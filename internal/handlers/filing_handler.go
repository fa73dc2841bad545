// -----------------------------------------------------------------------
// Filing handler - HTTP surface of the filing job registry
// -----------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/models"
)

// FilingHandler handles filing job API requests
type FilingHandler struct {
	filing       interfaces.FilingService
	jurisdiction interfaces.JurisdictionService
	caseStorage  interfaces.CaseStorage
	logger       arbor.ILogger
}

// NewFilingHandler creates a new filing handler
func NewFilingHandler(filing interfaces.FilingService, jurisdiction interfaces.JurisdictionService, caseStorage interfaces.CaseStorage, logger arbor.ILogger) *FilingHandler {
	return &FilingHandler{
		filing:       filing,
		jurisdiction: jurisdiction,
		caseStorage:  caseStorage,
		logger:       logger,
	}
}

type submitRequest struct {
	CaseID         string `json:"case_id"`
	OwnerID        string `json:"owner_id"`
	Modality       string `json:"modality,omitempty"`
	SkipValidation bool   `json:"skip_validation,omitempty"`
}

// SubmitHandler starts a filing job
// POST /api/filings
func (h *FilingHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CaseID == "" || req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "case_id and owner_id are required")
		return
	}

	job, err := h.filing.Submit(r.Context(), req.CaseID, req.OwnerID, interfaces.SubmitOptions{
		Modality:       req.Modality,
		SkipValidation: req.SkipValidation,
	})
	if err != nil {
		var validationErr *models.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":      "case validation failed",
				"validation": validationErr.Result,
			})
		case errors.Is(err, models.ErrCaseNotFound):
			writeError(w, http.StatusNotFound, "case not found")
		case errors.Is(err, models.ErrQueueFull):
			writeError(w, http.StatusTooManyRequests, "too many active filing jobs")
		default:
			h.logger.Error().Err(err).Msg("Failed to submit filing job")
			writeError(w, http.StatusInternalServerError, "failed to submit filing job")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// ListHandler returns the owner's recent jobs
// GET /api/filings?owner=owner_1&limit=20
func (h *FilingHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		h.SubmitHandler(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner query parameter is required")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	jobs, err := h.filing.ListRecent(r.Context(), owner, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list filing jobs")
		writeError(w, http.StatusInternalServerError, "failed to list filing jobs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// JobRoutesHandler dispatches /api/filings/{id} and subpaths
func (h *FilingHandler) JobRoutesHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/filings/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "job id is required")
		return
	}
	jobID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.statusHandler(w, r, jobID)
	case len(parts) == 2 && parts[1] == "logs" && r.Method == http.MethodGet:
		h.logsHandler(w, r, jobID)
	case len(parts) == 2 && parts[1] == "cancel" && r.Method == http.MethodPost:
		h.cancelHandler(w, r, jobID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

func (h *FilingHandler) statusHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.filing.GetStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job status")
		writeError(w, http.StatusInternalServerError, "failed to get job status")
		return
	}

	// Pollers get the log trail inline so one request shows the whole job
	if logs, err := h.filing.GetLogs(r.Context(), jobID); err == nil {
		job.Logs = logs
	}

	writeJSON(w, http.StatusOK, job)
}

func (h *FilingHandler) logsHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	logs, err := h.filing.GetLogs(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job logs")
		writeError(w, http.StatusInternalServerError, "failed to get job logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

func (h *FilingHandler) cancelHandler(w http.ResponseWriter, r *http.Request, jobID string) {
	err := h.filing.Cancel(r.Context(), jobID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancellation requested"})
	case errors.Is(err, models.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, models.ErrJobTerminal):
		// Cancelling a finished job is a no-op, not an error
		writeJSON(w, http.StatusOK, map[string]string{"status": "job already in terminal state"})
	default:
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to cancel job")
		writeError(w, http.StatusInternalServerError, "failed to cancel job")
	}
}

// CaseRoutesHandler dispatches /api/cases and /api/cases/{id}
// PUT stores the case snapshot; GET returns it; GET {id}/advice runs the
// jurisdiction advisor without filing.
func (h *FilingHandler) CaseRoutesHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/cases")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	caseID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodPut:
		h.putCaseHandler(w, r, caseID)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.getCaseHandler(w, r, caseID)
	case len(parts) == 2 && parts[1] == "advice" && r.Method == http.MethodGet:
		h.adviceHandler(w, r, caseID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

func (h *FilingHandler) putCaseHandler(w http.ResponseWriter, r *http.Request, caseID string) {
	var c models.CaseSnapshot
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid case payload")
		return
	}
	if c.CaseID == "" {
		c.CaseID = caseID
	}
	if c.CaseID != caseID {
		writeError(w, http.StatusBadRequest, "case_id in body does not match path")
		return
	}

	if err := h.caseStorage.StoreCase(r.Context(), &c); err != nil {
		h.logger.Error().Err(err).Str("case_id", caseID).Msg("Failed to store case")
		writeError(w, http.StatusInternalServerError, "failed to store case")
		return
	}

	// Validation runs on ingestion so callers see problems before filing
	validation := h.jurisdiction.Validate(&c)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"case_id":    c.CaseID,
		"validation": validation,
	})
}

func (h *FilingHandler) getCaseHandler(w http.ResponseWriter, r *http.Request, caseID string) {
	c, err := h.caseStorage.GetCase(r.Context(), caseID)
	if err != nil {
		if errors.Is(err, models.ErrCaseNotFound) {
			writeError(w, http.StatusNotFound, "case not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get case")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// adviceHandler runs jurisdiction analysis without starting a filing
func (h *FilingHandler) adviceHandler(w http.ResponseWriter, r *http.Request, caseID string) {
	c, err := h.caseStorage.GetCase(r.Context(), caseID)
	if err != nil {
		if errors.Is(err, models.ErrCaseNotFound) {
			writeError(w, http.StatusNotFound, "case not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get case")
		return
	}

	decision, err := h.jurisdiction.Analyze(r.Context(), c)
	if err != nil {
		h.logger.Error().Err(err).Str("case_id", caseID).Msg("Jurisdiction analysis failed")
		writeError(w, http.StatusInternalServerError, "jurisdiction analysis failed")
		return
	}

	portal, portalErr := h.jurisdiction.PortalFor(decision, c.WorkState)
	response := map[string]interface{}{
		"decision": decision,
		"deadline": h.jurisdiction.Deadline(c),
	}
	if portalErr == nil {
		response["portal"] = portal
	}

	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
