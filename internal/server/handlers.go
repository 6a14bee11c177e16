package server

import (
	"net/http"

	"github.com/aristath/scorecard/pkg/respond"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"service": "scorecard",
	}

	s.writeJSON(w, r, http.StatusOK, response)
}

// writeJSON writes a response in the negotiated encoding
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := respond.Write(w, r, status, data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}
