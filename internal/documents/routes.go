package documents

import (
	"github.com/go-chi/chi/v5"

	"github.com/quotedesk/quotedesk/internal/pricing"
)

func (h *Handler) MountRoutes(r chi.Router) {
	for _, kind := range []pricing.Kind{pricing.KindQuotation, pricing.KindInvoice} {
		base := "/" + string(kind) + "s"
		r.Get(base, h.list(kind))
		r.Post(base, h.create(kind))
		r.Get(base+"/export", h.export(kind))
		r.Get(base+"/{id}", h.show(kind))
		r.Patch(base+"/{id}", h.updateHeader(kind))
		r.Delete(base+"/{id}", h.delete(kind))

		versions := "/" + string(kind) + "-versions"
		r.Post(versions, h.saveNew(kind))
		r.Patch(versions+"/{id}", h.saveCurrent(kind))
	}
	r.Post("/quotations/{id}/convert", h.Convert)
}
