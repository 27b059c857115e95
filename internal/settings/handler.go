package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

// Handler serves the settings endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// scopeFunc restricts list and dropdown queries, e.g. to the caller's rows.
type scopeFunc func(r *http.Request) map[string]any

func ownedByCaller(r *http.Request) map[string]any {
	user, _ := shared.UserFromContext(r.Context())
	return map[string]any{"user_id": user.ID}
}

// catalogRoutes mounts list, dropdown, show, create, update and delete for one catalogue.
func catalogRoutes[T any, R any](h *Handler, r chi.Router, path string, c *Catalog[T, R], scope scopeFunc) {
	filter := func(req *http.Request) map[string]any {
		if scope == nil {
			return nil
		}
		return scope(req)
	}
	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		params := shared.ParseListParams(req)
		items, total, err := c.List(req.Context(), Query{ListParams: params, Filter: filter(req)})
		if err != nil {
			h.logger.Error("list settings", slog.String("path", path), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, shared.NewPage(req, params, total, items))
	})
	r.Get(path+"/dropdown", func(w http.ResponseWriter, req *http.Request) {
		options, err := c.Options(req.Context(), filter(req))
		if err != nil {
			h.logger.Error("settings dropdown", slog.String("path", path), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if options == nil {
			options = []DropdownOption{}
		}
		httpx.JSON(w, http.StatusOK, options)
	})
	r.Get(path+"/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, err := httpx.IDParam(req, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		item, err := c.Get(req.Context(), id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, item)
	})
	r.Post(path, func(w http.ResponseWriter, req *http.Request) {
		var body R
		if err := decode(req, &body); err != nil {
			httpx.RespondError(w, err)
			return
		}
		item, err := c.Create(req.Context(), body)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, item)
	})
	update := func(w http.ResponseWriter, req *http.Request) {
		id, err := httpx.IDParam(req, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		var body R
		if err := decode(req, &body); err != nil {
			httpx.RespondError(w, err)
			return
		}
		item, err := c.Update(req.Context(), id, body)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, item)
	}
	r.Put(path+"/{id}", update)
	r.Patch(path+"/{id}", update)
	r.Delete(path+"/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, err := httpx.IDParam(req, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := c.Delete(req.Context(), id); err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.NoContent(w)
	})
}

func decode(r *http.Request, v any) error {
	if err := httpx.DecodeJSON(r, v); err != nil {
		return err
	}
	return httpx.Validate(v)
}

func (h *Handler) currencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.service.CurrencyOptions(r.Context())
	if err != nil {
		h.logger.Error("currency dropdown", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if currencies == nil {
		currencies = []Currency{}
	}
	httpx.JSON(w, http.StatusOK, currencies)
}

func (h *Handler) showCompany(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.CompanyProfile(r.Context())
	if err != nil {
		h.logger.Error("company profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) saveCompany(w http.ResponseWriter, r *http.Request) {
	var req CompanyProfileRequest
	if err := decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	profile, err := h.service.SaveCompanyProfile(r.Context(), req)
	if err != nil {
		h.logger.Error("save company profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}
