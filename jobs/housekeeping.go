package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Sweeper removes unreferenced uploads older than maxAge.
type Sweeper interface {
	Sweep(ctx context.Context, maxAge time.Duration, batch int) (int, error)
}

// KeyCleaner removes idempotency keys older than maxAge.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Recorder counts finished job runs.
type Recorder interface {
	JobFinished(task string, err error)
}

// AttachmentsSweepJob handles TaskAttachmentsSweep.
type AttachmentsSweepJob struct {
	Sweeper Sweeper
	Logger  *slog.Logger
	Metrics Recorder
}

// NewAttachmentsSweepJob wires dependencies for the sweep handler.
func NewAttachmentsSweepJob(sweeper Sweeper, logger *slog.Logger, metrics Recorder) *AttachmentsSweepJob {
	return &AttachmentsSweepJob{Sweeper: sweeper, Logger: logger, Metrics: metrics}
}

// Handle processes attachment sweep tasks.
func (j *AttachmentsSweepJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Sweeper == nil {
		return errors.New("attachments sweep: handler not configured")
	}
	var payload SweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.MaxAge <= 0 {
		payload.MaxAge = defaultSweepAge
	}
	if payload.Batch <= 0 {
		payload.Batch = defaultSweepBatch
	}
	defer func() { record(j.Metrics, TaskAttachmentsSweep, err) }()

	logger := loggerOrDefault(j.Logger).With(slog.Duration("max_age", payload.MaxAge))
	removed, err := j.Sweeper.Sweep(ctx, payload.MaxAge, payload.Batch)
	if err != nil {
		logger.Error("sweep attachments", slog.Int("removed", removed), slog.Any("error", err))
		return err
	}
	logger.Info("attachments swept", slog.Int("removed", removed))
	return nil
}

// IdempotencyCleanupJob handles TaskIdempotencyCleanup.
type IdempotencyCleanupJob struct {
	Keys    KeyCleaner
	Logger  *slog.Logger
	Metrics Recorder
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
func NewIdempotencyCleanupJob(keys KeyCleaner, logger *slog.Logger, metrics Recorder) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Keys: keys, Logger: logger, Metrics: metrics}
}

// Handle processes idempotency cleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Keys == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload CleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.MaxAge <= 0 {
		payload.MaxAge = defaultKeyAge
	}
	defer func() { record(j.Metrics, TaskIdempotencyCleanup, err) }()

	removed, err := j.Keys.Cleanup(ctx, payload.MaxAge)
	if err != nil {
		loggerOrDefault(j.Logger).Error("cleanup idempotency keys", slog.Any("error", err))
		return err
	}
	loggerOrDefault(j.Logger).Info("idempotency keys removed", slog.Int64("removed", removed))
	return nil
}

func record(m Recorder, task string, err error) {
	if m != nil {
		m.JobFinished(task, err)
	}
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
