package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all dashboard routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", h.HandleGetDashboard)        // Full view: summary, radar, table, clusters
		r.Get("/sectors", h.HandleGetSectors)   // Sector and metric choices
		r.Get("/scores", h.HandleGetScores)     // Scored table
		r.Get("/ranking", h.HandleGetRanking)   // Top-N score cards
		r.Get("/clusters", h.HandleGetClusters) // Similarity map
	})
}
