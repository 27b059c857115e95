package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	defaultConcurrency = 2
	shutdownTimeout    = 15 * time.Second
)

// Worker runs housekeeping handlers and, when schedules are registered, the
// cron scheduler that feeds them.
type Worker struct {
	redis       asynq.RedisClientOpt
	logger      *slog.Logger
	concurrency int
	mux         *asynq.ServeMux
	scheduler   *asynq.Scheduler
}

// NewWorker prepares a worker on the given Redis connection. A concurrency
// below one falls back to the default.
func NewWorker(redis asynq.RedisClientOpt, concurrency int, logger *slog.Logger) *Worker {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		redis:       redis,
		logger:      logger,
		concurrency: concurrency,
		mux:         asynq.NewServeMux(),
	}
}

// Handle registers the handler for a task type.
func (w *Worker) Handle(taskType string, h asynq.HandlerFunc) {
	w.mux.HandleFunc(taskType, h)
}

// Schedule enqueues task on every tick of the cron spec (UTC).
func (w *Worker) Schedule(spec string, task *asynq.Task, opts ...asynq.Option) error {
	if w.scheduler == nil {
		w.scheduler = asynq.NewScheduler(w.redis, &asynq.SchedulerOpts{Location: time.UTC})
	}
	entryID, err := w.scheduler.Register(spec, task, opts...)
	if err != nil {
		return err
	}
	w.logger.Info("job scheduled", slog.String("task", task.Type()), slog.String("spec", spec), slog.String("entry", entryID))
	return nil
}

// Run processes tasks until ctx is cancelled, then drains in-flight work.
func (w *Worker) Run(ctx context.Context) error {
	srv := asynq.NewServer(w.redis, asynq.Config{
		Concurrency:     w.concurrency,
		Queues:          map[string]int{QueueDefault: 1},
		ShutdownTimeout: shutdownTimeout,
		ErrorHandler:    asynq.ErrorHandlerFunc(w.taskFailed),
	})
	if err := srv.Start(w.mux); err != nil {
		return err
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			srv.Shutdown()
			return err
		}
	}

	<-ctx.Done()
	w.logger.Info("worker stopping")
	if w.scheduler != nil {
		w.scheduler.Shutdown()
	}
	srv.Shutdown()
	return nil
}

func (w *Worker) taskFailed(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	level := slog.LevelWarn
	if errors.Is(err, asynq.SkipRetry) || retried >= maxRetry {
		level = slog.LevelError
	}
	w.logger.Log(ctx, level, "job failed",
		slog.String("task", task.Type()),
		slog.Int("retried", retried),
		slog.Int("max_retry", maxRetry),
		slog.Any("error", err))
}
