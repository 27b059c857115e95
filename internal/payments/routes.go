package payments

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/payments", h.List)
	r.Post("/payments", h.Create)
	r.Get("/payments/{id}", h.Show)
	r.Put("/payments/{id}", h.Update)
	r.Patch("/payments/{id}", h.Update)
	r.Delete("/payments/{id}", h.Delete)
	r.Get("/invoices/{id}/payments", h.ForInvoice)
}
