package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health and status
	mux.HandleFunc("/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/status", s.app.APIHandler.StatusHandler)

	// Filing jobs
	mux.HandleFunc("/api/filings", s.app.FilingHandler.ListHandler)
	mux.HandleFunc("/api/filings/", s.app.FilingHandler.JobRoutesHandler)

	// Case snapshots
	mux.HandleFunc("/api/cases/", s.app.FilingHandler.CaseRoutesHandler)

	// WebSocket for live job updates
	mux.HandleFunc("/ws", s.app.WebSocketHandler.HandleWebSocket)

	return mux
}
