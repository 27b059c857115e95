package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quotedesk/quotedesk/internal/adjustments"
	"github.com/quotedesk/quotedesk/internal/attachments"
	"github.com/quotedesk/quotedesk/internal/auth"
	"github.com/quotedesk/quotedesk/internal/customers"
	"github.com/quotedesk/quotedesk/internal/documents"
	"github.com/quotedesk/quotedesk/internal/numbering"
	"github.com/quotedesk/quotedesk/internal/observability"
	"github.com/quotedesk/quotedesk/internal/payments"
	"github.com/quotedesk/quotedesk/internal/settings"
	"github.com/quotedesk/quotedesk/internal/users"
	"github.com/quotedesk/quotedesk/jobs"
)

// APIPrefix is the path every REST endpoint is mounted under.
const APIPrefix = "/api/v1"

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	RequireUser func(http.Handler) http.Handler

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	CustomersHandler   *customers.Handler
	AdjustmentsHandler *adjustments.Handler
	SettingsHandler    *settings.Handler
	NumberingHandler   *numbering.Handler
	AttachmentsHandler *attachments.Handler
	DocumentsHandler   *documents.Handler
	PaymentsHandler    *payments.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with quotedesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route(APIPrefix, func(r chi.Router) {
		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(r)
		}
		r.Group(func(r chi.Router) {
			if params.RequireUser != nil {
				r.Use(params.RequireUser)
			}
			if params.UsersHandler != nil {
				params.UsersHandler.MountRoutes(r)
			}
			if params.CustomersHandler != nil {
				params.CustomersHandler.MountRoutes(r)
			}
			if params.AdjustmentsHandler != nil {
				params.AdjustmentsHandler.MountRoutes(r)
			}
			if params.SettingsHandler != nil {
				params.SettingsHandler.MountRoutes(r)
			}
			if params.NumberingHandler != nil {
				params.NumberingHandler.MountRoutes(r)
			}
			if params.AttachmentsHandler != nil {
				params.AttachmentsHandler.MountRoutes(r)
			}
			if params.DocumentsHandler != nil {
				params.DocumentsHandler.MountRoutes(r)
			}
			if params.PaymentsHandler != nil {
				params.PaymentsHandler.MountRoutes(r)
			}
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}
