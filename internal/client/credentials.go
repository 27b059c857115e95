package client

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

// RefreshFunc exchanges a refresh token for a new access token.
type RefreshFunc func(ctx context.Context, refresh string) (string, error)

// Credentials holds the bearer tokens shared by every request of a Client.
// Concurrent refreshes collapse into a single call.
type Credentials struct {
	mu      sync.RWMutex
	access  string
	refresh string

	group     singleflight.Group
	refresher RefreshFunc
}

func NewCredentials(access, refresh string) *Credentials {
	return &Credentials{access: access, refresh: refresh}
}

// Tokens returns the current access and refresh tokens.
func (c *Credentials) Tokens() (access, refresh string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access, c.refresh
}

// Set replaces both tokens.
func (c *Credentials) Set(access, refresh string) {
	c.mu.Lock()
	c.access, c.refresh = access, refresh
	c.mu.Unlock()
}

// Clear forgets both tokens.
func (c *Credentials) Clear() {
	c.Set("", "")
}

func (c *Credentials) setAccess(access string) {
	c.mu.Lock()
	c.access = access
	c.mu.Unlock()
}

// Refresh obtains a new access token using the stored refresh token. A
// refresh rejected with 400, 401 or 403 clears the credentials and returns
// ErrSessionExpired. Network failures and server errors leave them in place.
func (c *Credentials) Refresh(ctx context.Context) error {
	_, refresh := c.Tokens()
	if refresh == "" || c.refresher == nil {
		return ErrSessionExpired
	}
	ch := c.group.DoChan(refresh, func() (any, error) {
		return c.refresher(ctx, refresh)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if !refreshRejected(res.Err) {
				return res.Err
			}
			if _, current := c.Tokens(); current == refresh {
				c.Clear()
			}
			return ErrSessionExpired
		}
		c.setAccess(res.Val.(string))
		return nil
	}
}

func refreshRejected(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}
