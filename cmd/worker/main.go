package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/quotedesk/quotedesk/internal/app"
	"github.com/quotedesk/quotedesk/internal/attachments"
	"github.com/quotedesk/quotedesk/internal/observability"
	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/shared"
	"github.com/quotedesk/quotedesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var blobs attachments.BlobStore
	if cfg.AttachmentBucket != "" {
		gcs, err := attachments.NewGCSStore(ctx, cfg.AttachmentBucket, cfg.AttachmentCredentialsJSON)
		if err != nil {
			logger.Error("open attachment bucket", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := gcs.Close(); err != nil {
				logger.Warn("attachment bucket close", slog.Any("error", err))
			}
		}()
		blobs = gcs
	} else {
		local, err := attachments.NewLocalStore(cfg.AttachmentDir)
		if err != nil {
			logger.Error("open attachment dir", slog.Any("error", err))
			os.Exit(1)
		}
		blobs = local
	}

	metrics := observability.NewMetrics()
	attachmentsService := attachments.NewService(attachments.NewRepository(pool), blobs, cfg.AttachmentMaxBytes, logger)
	sweepJob := jobs.NewAttachmentsSweepJob(attachmentsService, logger, metrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), logger, metrics)

	sweepTask, err := jobs.NewAttachmentsSweepTask(0, 0)
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(0)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker := jobs.NewWorker(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, cfg.WorkerConcurrency, logger)
	worker.Handle(jobs.TaskAttachmentsSweep, sweepJob.Handle)
	worker.Handle(jobs.TaskIdempotencyCleanup, cleanupJob.Handle)
	if err := worker.Schedule("30 2 * * *", sweepTask, asynq.MaxRetry(3)); err != nil {
		logger.Error("schedule attachments sweep", slog.Any("error", err))
		os.Exit(1)
	}
	if err := worker.Schedule("0 3 * * *", cleanupTask, asynq.MaxRetry(3)); err != nil {
		logger.Error("schedule idempotency cleanup", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			_ = metricsServer.Close()
		}()
	}

	if err := worker.Run(ctx); err != nil {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
