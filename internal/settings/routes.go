package settings

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	catalogRoutes(h, r, "/payment-terms", h.service.PaymentTerms, nil)
	catalogRoutes(h, r, "/payment-methods", h.service.PaymentMethods, nil)
	catalogRoutes(h, r, "/account-types", h.service.AccountTypes, nil)
	catalogRoutes(h, r, "/accounts", h.service.Accounts, nil)
	catalogRoutes(h, r, "/user-signatures", h.service.Signatures, ownedByCaller)
	r.Get("/currencies/dropdown", h.currencies)
	r.Get("/company-profile", h.showCompany)
	r.Put("/company-profile", h.saveCompany)
}
