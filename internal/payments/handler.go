package payments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

// Handler serves payment records.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, _ := shared.UserFromContext(r.Context())
	result, err := h.service.Create(r.Context(), req, user, r.Header.Get(shared.IdempotencyHeader))
	if errors.Is(err, ErrInProgress) {
		httpx.Detail(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.logger.Warn("create payment", slog.Int64("invoice", req.Invoice), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	httpx.JSON(w, status, result.Payment)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListPaymentsRequest{ListParams: shared.ParseListParams(r)}
	if v, err := strconv.ParseInt(r.URL.Query().Get("invoice"), 10, 64); err == nil && v > 0 {
		req.Invoice = &v
	}
	h.list(w, r, req)
}

// ForInvoice handles GET /invoices/{id}/payments.
func (h *Handler) ForInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.list(w, r, ListPaymentsRequest{ListParams: shared.ParseListParams(r), Invoice: &id})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, req ListPaymentsRequest) {
	payments, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list payments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(r, req.ListParams, total, payments))
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdatePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Warn("update payment", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
