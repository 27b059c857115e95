package shared

import (
	"fmt"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = httpx.ErrNotFound
	// ErrDuplicate indicates a unique key collision.
	ErrDuplicate = httpx.ErrDuplicate
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", httpx.ErrUnauthorized)
	// ErrUnauthenticated indicates a request without a usable access token.
	ErrUnauthenticated = fmt.Errorf("not authenticated: %w", httpx.ErrUnauthorized)
)
