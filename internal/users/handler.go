package users

import (
	"log/slog"
	"net/http"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

// Handler manages user endpoints.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	adminsOnly func(http.Handler) http.Handler
}

// NewHandler builds Handler instance. adminsOnly guards account management routes.
func NewHandler(logger *slog.Logger, service *Service, adminsOnly func(http.Handler) http.Handler) *Handler {
	if adminsOnly == nil {
		adminsOnly = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{logger: logger, service: service, adminsOnly: adminsOnly}
}

func decode(r *http.Request, v any) error {
	if err := httpx.DecodeJSON(r, v); err != nil {
		return err
	}
	return httpx.Validate(v)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListUsersRequest{ListParams: shared.ParseListParams(r)}
	users, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPage(r, req.ListParams, total, users))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Warn("create user failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateUserRequest
	if err := decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if caller, ok := shared.UserFromContext(r.Context()); ok && caller.ID == id {
		httpx.RespondError(w, httpx.Invalid(httpx.DetailKey, "You cannot delete your own account."))
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ResetPasswordRequest
	if err := decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ResetPassword(r.Context(), id, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"detail": "Password has been reset."})
}

func (h *Handler) groups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.Groups(r.Context())
	if err != nil {
		h.logger.Error("list groups failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if groups == nil {
		groups = []Group{}
	}
	httpx.JSON(w, http.StatusOK, groups)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	u, err := h.service.Get(r.Context(), caller.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var req UpdateProfileRequest
	if err := decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.UpdateProfile(r.Context(), caller.ID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.UserFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var req ChangePasswordRequest
	if err := decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), caller.ID, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"detail": "Password updated successfully."})
}
