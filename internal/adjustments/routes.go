package adjustments

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/price-adjustments", h.List)
	r.Post("/price-adjustments", h.Create)
}
