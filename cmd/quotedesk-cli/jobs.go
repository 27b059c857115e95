package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/quotedesk/quotedesk/jobs"
)

// jobsConn holds the queue client and inspector used by the jobs commands.
type jobsConn struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

func dialJobs(redisAddr string) *jobsConn {
	opt := asynq.RedisClientOpt{Addr: redisAddr}
	return &jobsConn{client: jobs.NewClient(opt), inspector: asynq.NewInspector(opt)}
}

func (c *jobsConn) Close() error {
	return errors.Join(c.client.Close(), c.inspector.Close())
}

func (c *jobsConn) trigger(ctx context.Context, taskType string) (*asynq.TaskInfo, error) {
	info, err := c.client.Trigger(ctx, taskType, asynq.MaxRetry(3))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil, fmt.Errorf("%s was triggered recently and is still queued", taskType)
	}
	return info, err
}

func (c *jobsConn) stats() (jobs.QueueStats, error) {
	return jobs.Inspect(c.inspector)
}
