package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound indicates a refresh session that expired or was revoked.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps refresh-token sessions in Redis. A session id is embedded
// in the refresh token so logout can revoke it before it expires.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// StoredSession is the payload kept per session id.
type StoredSession struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"ua,omitempty"`
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client redis.UniversalClient, prefix string, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, prefix: prefix, ttl: ttl}
}

// Create records a new session and returns its id.
func (s *SessionStore) Create(ctx context.Context, sess StoredSession) (string, error) {
	id := uuid.NewString()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.redisKey(id), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

// Lookup returns the session for id.
func (s *SessionStore) Lookup(ctx context.Context, id string) (*StoredSession, error) {
	payload, err := s.client.Get(ctx, s.redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var stored StoredSession
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Revoke deletes the session.
func (s *SessionStore) Revoke(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.redisKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

func (s *SessionStore) redisKey(id string) string {
	return s.prefix + ":" + id
}
