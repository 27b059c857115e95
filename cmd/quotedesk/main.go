package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/quotedesk/quotedesk/internal/adjustments"
	"github.com/quotedesk/quotedesk/internal/app"
	"github.com/quotedesk/quotedesk/internal/attachments"
	"github.com/quotedesk/quotedesk/internal/auth"
	"github.com/quotedesk/quotedesk/internal/customers"
	"github.com/quotedesk/quotedesk/internal/documents"
	"github.com/quotedesk/quotedesk/internal/numbering"
	"github.com/quotedesk/quotedesk/internal/observability"
	"github.com/quotedesk/quotedesk/internal/payments"
	"github.com/quotedesk/quotedesk/internal/platform/cache"
	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/settings"
	"github.com/quotedesk/quotedesk/internal/shared"
	"github.com/quotedesk/quotedesk/internal/users"
	"github.com/quotedesk/quotedesk/jobs"
)

// documentLockWait bounds how long a version save waits for another save of
// the same document.
const documentLockWait = 2 * time.Second

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	usersRepo := users.NewRepository(dbpool)
	tokens := auth.NewTokens(auth.TokenConfig{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	sessions := shared.NewSessionStore(redisClient, "quotedesk:refresh", cfg.RefreshTokenTTL)
	authService := auth.NewService(usersRepo, tokens, sessions)
	authHandler := auth.NewHandler(logger, authService)
	usersHandler := users.NewHandler(logger, users.NewService(usersRepo), auth.RequireGroup(users.GroupAdmin))

	customersHandler := customers.NewHandler(logger, customers.NewService(customers.NewRepository(dbpool)))
	adjustmentsHandler := adjustments.NewHandler(logger, adjustments.NewService(adjustments.NewRepository(dbpool)))
	settingsHandler := settings.NewHandler(logger, settings.NewService(settings.NewRepositories(dbpool)))

	numberingService := numbering.NewService(numbering.NewRepository(dbpool))
	numberingHandler := numbering.NewHandler(logger, numberingService)

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		logger.Error("open attachment store", slog.Any("error", err))
		os.Exit(1)
	}
	attachmentsService := attachments.NewService(attachments.NewRepository(dbpool), blobs, cfg.AttachmentMaxBytes, logger)
	attachmentsHandler := attachments.NewHandler(logger, attachmentsService)

	locker := cache.NewLocker(redisClient, cfg.DocumentLockTTL, documentLockWait)
	documentsService := documents.NewService(documents.NewRepository(dbpool), numberingService, locker, metrics, auditLogger, logger)
	documentsHandler := documents.NewHandler(logger, documentsService)

	paymentsService := payments.NewService(payments.NewRepository(dbpool), numberingService, idempotencyStore, metrics, logger)
	paymentsHandler := payments.NewHandler(logger, paymentsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		RequireUser:        authService.RequireUser,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		CustomersHandler:   customersHandler,
		AdjustmentsHandler: adjustmentsHandler,
		SettingsHandler:    settingsHandler,
		NumberingHandler:   numberingHandler,
		AttachmentsHandler: attachmentsHandler,
		DocumentsHandler:   documentsHandler,
		PaymentsHandler:    paymentsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// openBlobStore uses the GCS bucket when one is configured and the local
// attachment directory otherwise.
func openBlobStore(ctx context.Context, cfg *app.Config) (attachments.BlobStore, error) {
	if cfg.AttachmentBucket != "" {
		return attachments.NewGCSStore(ctx, cfg.AttachmentBucket, cfg.AttachmentCredentialsJSON)
	}
	return attachments.NewLocalStore(cfg.AttachmentDir)
}
