package attachments

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/document-attachments/upload", h.Upload)
	r.Get("/document-attachments/{id}", h.Download)
}
