package users

import "github.com/go-chi/chi/v5"

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/user-profile", h.profile)
	r.Put("/user-profile", h.updateProfile)
	r.Post("/change-password", h.changePassword)
	r.Get("/groups/dropdown", h.groups)

	r.Group(func(r chi.Router) {
		r.Use(h.adminsOnly)
		r.Get("/users", h.list)
		r.Post("/users", h.create)
		r.Get("/users/{id}", h.show)
		r.Put("/users/{id}", h.update)
		r.Patch("/users/{id}", h.update)
		r.Delete("/users/{id}", h.remove)
		r.Put("/reset-password/{id}", h.resetPassword)
		r.Patch("/reset-password/{id}", h.resetPassword)
	})
}
