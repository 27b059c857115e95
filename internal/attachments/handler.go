package attachments

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

// Handler serves attachment upload and download.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

const multipartMemory = 8 << 20

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		httpx.RespondError(w, httpx.Invalid("file", "Upload a valid multipart form."))
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.RespondError(w, httpx.Invalid("file", "No file was submitted."))
		return
	}
	defer file.Close()

	name := r.FormValue("original_filename")
	if name == "" {
		name = header.Filename
	}
	in := UploadInput{
		Filename:        name,
		Description:     r.FormValue("description"),
		DocumentType:    r.FormValue("document_type"),
		ReferenceNumber: r.FormValue("reference_number"),
	}
	if user, ok := shared.UserFromContext(r.Context()); ok {
		in.UploadedBy = user.ID
	}
	att, err := h.service.Upload(r.Context(), in, file)
	if err != nil {
		h.logger.Warn("upload attachment", slog.String("filename", name), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"id": att.ID})
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	att, rc, err := h.service.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.OriginalFilename}))
	if att.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(att.SizeBytes, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("stream attachment", slog.String("id", att.ID), slog.Any("error", fmt.Errorf("copy: %w", err)))
	}
}
