package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLocked indicates another holder owns the lock.
var ErrLocked = errors.New("platform/cache: resource is locked")

// New creates a new Redis client.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}

// Locker hands out short-lived distributed locks keyed by resource name.
type Locker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewLocker wraps a redis client. Obtain retries for up to wait before giving up.
func NewLocker(client redis.UniversalClient, ttl, wait time.Duration) *Locker {
	return &Locker{client: redislock.New(client), ttl: ttl, wait: wait}
}

// WithLock runs fn while holding the lock for key.
func (l *Locker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if l == nil {
		return fn(ctx)
	}
	opts := &redislock.Options{}
	if l.wait > 0 {
		opts.RetryStrategy = redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), int(l.wait/(50*time.Millisecond)))
	}
	lock, err := l.client.Obtain(ctx, key, l.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("%s: %w", key, ErrLocked)
	}
	if err != nil {
		return fmt.Errorf("platform/cache: obtain lock %s: %w", key, err)
	}
	defer func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}()
	return fn(ctx)
}
