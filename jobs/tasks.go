package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAttachmentsSweep deletes uploads that no record references.
	TaskAttachmentsSweep = "attachments:sweep"
	// TaskIdempotencyCleanup deletes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

const (
	defaultSweepAge   = 24 * time.Hour
	defaultSweepBatch = 200
	defaultKeyAge     = 72 * time.Hour
)

// SweepPayload selects which orphan uploads are removed.
type SweepPayload struct {
	MaxAge time.Duration `json:"max_age"`
	Batch  int           `json:"batch"`
}

// CleanupPayload selects which idempotency keys are removed.
type CleanupPayload struct {
	MaxAge time.Duration `json:"max_age"`
}

// NewAttachmentsSweepTask builds a sweep task. Zero values use the defaults.
func NewAttachmentsSweepTask(maxAge time.Duration, batch int) (*asynq.Task, error) {
	body, err := json.Marshal(SweepPayload{MaxAge: maxAge, Batch: batch})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAttachmentsSweep, body, asynq.Queue(QueueDefault)), nil
}

// NewIdempotencyCleanupTask builds a cleanup task. A zero maxAge uses the default.
func NewIdempotencyCleanupTask(maxAge time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(CleanupPayload{MaxAge: maxAge})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}

// NewTask builds a task by type name with default options.
func NewTask(taskType string) (*asynq.Task, error) {
	switch taskType {
	case TaskAttachmentsSweep:
		return NewAttachmentsSweepTask(0, 0)
	case TaskIdempotencyCleanup:
		return NewIdempotencyCleanupTask(0)
	}
	return nil, fmt.Errorf("unknown task type %q", taskType)
}
