package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Review
	mux.HandleFunc("/api/review", s.app.ReviewHandler.ReviewHandler) // POST - evaluate text against rules

	// API routes - Session rule context
	mux.HandleFunc("/api/rules", s.app.RulesHandler.RulesHandler) // GET (list), POST (merge), DELETE (clear)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler) // GET - application status

	return mux
}
