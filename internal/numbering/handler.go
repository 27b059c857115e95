package numbering

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/latest-number", h.latest)
}

func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	t, err := ParseDocumentType(r.URL.Query().Get("document_type"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, _ := shared.UserFromContext(r.Context())
	userID := user.ID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			httpx.RespondError(w, httpx.Invalid("user_id", "A valid integer is required."))
			return
		}
	}
	number, err := h.service.Peek(r.Context(), t, userID)
	if err != nil {
		h.logger.Warn("latest number", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"latest_number": number})
}
