package documents

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/pricing"
	"github.com/quotedesk/quotedesk/internal/shared"
)

// Handler serves quotations and invoices. Every route is bound to one kind.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func currentUser(r *http.Request) shared.CurrentUser {
	user, _ := shared.UserFromContext(r.Context())
	return user
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBusy) {
		httpx.Detail(w, http.StatusConflict, "This document is being saved by someone else. Please try again.")
		return
	}
	httpx.RespondError(w, err)
}

func (h *Handler) list(kind pricing.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := listRequest(r)
		rows, total, err := h.service.List(r.Context(), kind, req)
		if err != nil {
			h.logger.Error("list documents", slog.String("kind", string(kind)), slog.Any("error", err))
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, shared.NewPage(r, req.ListParams, total, rows))
	}
}

func listRequest(r *http.Request) ListRequest {
	req := ListRequest{ListParams: shared.ParseListParams(r), Status: pricing.Status(r.URL.Query().Get("status"))}
	if v, err := strconv.ParseInt(r.URL.Query().Get("customer"), 10, 64); err == nil && v > 0 {
		req.Customer = &v
	}
	return req
}

func (h *Handler) export(kind pricing.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+string(kind)+"s.xlsx")
		if err := h.service.ExportXLSX(r.Context(), kind, listRequest(r), w); err != nil {
			h.logger.Error("export documents", slog.String("kind", string(kind)), slog.Any("error", err))
			w.Header().Del("Content-Disposition")
			h.respondError(w, err)
		}
	}
}

func (h *Handler) show(kind pricing.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		doc, err := h.service.Get(r.Context(), kind, id)
		if err != nil {
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, doc)
	}
}

func (h *Handler) create(kind pricing.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := httpx.Validate(req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		doc, err := h.service.Create(r.Context(), kind, req, currentUser(r))
		if err != nil {
			h.logger.Warn("create document", slog.String("kind", string(kind)), slog.Any("error", err))
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, doc)
	}
}

func (h *Handler) updateHeader(kind pricing.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		var req UpdateHeaderRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := httpx.Validate(req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		doc, err := h.service.UpdateHeader(r.Context(), kind, id, req)
		if err != nil {
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, doc)
	}
}

func (h *Handler) delete(kind pricing.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := h.service.Delete(r.Context(), kind, id, currentUser(r)); err != nil {
			h.respondError(w, err)
			return
		}
		httpx.NoContent(w)
	}
}

// saveNew handles POST /{kind}-versions; the body names the document.
func (h *Handler) saveNew(kind pricing.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveVersionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		h.save(w, r, kind, req.DocumentID(kind), pricing.SaveNew, req, http.StatusCreated)
	}
}

// saveCurrent handles PATCH /{kind}-versions/{id}; the body names the version.
func (h *Handler) saveCurrent(kind pricing.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		var req SaveVersionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		h.save(w, r, kind, id, pricing.SaveCurrent, req, http.StatusOK)
	}
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, kind pricing.Kind, id int64, mode pricing.SaveMode, req SaveVersionRequest, status int) {
	version, err := h.service.SaveVersion(r.Context(), kind, id, mode, req, currentUser(r))
	if err != nil {
		h.logger.Warn("save version", slog.String("kind", string(kind)), slog.Int64("document", id),
			slog.String("mode", string(mode)), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, status, version)
}

func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ConvertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	doc, err := h.service.ConvertToInvoice(r.Context(), id, req, currentUser(r))
	if err != nil {
		h.logger.Warn("convert quotation", slog.Int64("quotation", id), slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}
