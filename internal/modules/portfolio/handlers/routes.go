package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers session and portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(h.sessions))

		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.HandleGetSession)
			r.Put("/identity", h.HandleSetIdentity)      // Sign in
			r.Delete("/identity", h.HandleClearIdentity) // Sign out
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", h.HandleGetPortfolio)
			r.Delete("/", h.HandleClear)
			r.Post("/funds", h.HandleAddFunds)
			r.Post("/buy", h.HandleBuy)
		})
	})
}
