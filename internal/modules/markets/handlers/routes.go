package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers market data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.HandleGetEvents)

	r.Route("/markets", func(r chi.Router) {
		r.Get("/board", h.HandleGetBoard)
	})
}
