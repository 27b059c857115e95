package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// manualTriggerWindow keeps a repeated manual trigger from queueing the same
// housekeeping task twice.
const manualTriggerWindow = 10 * time.Minute

// Client enqueues housekeeping tasks.
type Client struct {
	client *asynq.Client
}

// NewClient connects a client to Redis.
func NewClient(redis asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redis)}
}

// Enqueue submits a prepared task to the default queue.
func (c *Client) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	opts = append([]asynq.Option{asynq.Queue(QueueDefault)}, opts...)
	return c.client.EnqueueContext(ctx, task, opts...)
}

// Trigger enqueues a task by type with its default payload. A second trigger
// of the same type within manualTriggerWindow fails with asynq.ErrDuplicateTask.
func (c *Client) Trigger(ctx context.Context, taskType string, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	task, err := NewTask(taskType)
	if err != nil {
		return nil, err
	}
	opts = append([]asynq.Option{asynq.Unique(manualTriggerWindow)}, opts...)
	return c.Enqueue(ctx, task, opts...)
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
