package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/quotedesk/quotedesk/internal/shared"
	"github.com/quotedesk/quotedesk/internal/users"
)

// Repository is the slice of user persistence that auth needs.
type Repository interface {
	Get(ctx context.Context, id int64) (*users.User, error)
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	TouchLogin(ctx context.Context, id int64) error
}

// LoginResult is returned by POST /token.
type LoginResult struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Name      string `json:"name"`
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	tokens   *Tokens
	sessions *shared.SessionStore
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *Tokens, sessions *shared.SessionStore) *Service {
	return &Service{repo: repo, tokens: tokens, sessions: sessions}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*users.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and opens a refresh session.
func (s *Service) Login(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	access, err := s.tokens.Access(user.ID, user.Email, user.Name(), user.GroupName)
	if err != nil {
		return nil, err
	}
	sessionID, err := s.sessions.Create(ctx, shared.StoredSession{UserID: user.ID, IP: ip, UserAgent: userAgent})
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Refresh(user.ID, sessionID)
	if err != nil {
		return nil, err
	}
	_ = s.repo.TouchLogin(ctx, user.ID)
	return &LoginResult{
		Access:    access,
		Refresh:   refresh,
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Name:      user.Name(),
	}, nil
}

// Refresh exchanges a live refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, TokenRefresh)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrUnauthenticated, err)
	}
	sess, err := s.sessions.Lookup(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, shared.ErrSessionNotFound) {
			return "", fmt.Errorf("refresh session revoked: %w", shared.ErrUnauthenticated)
		}
		return "", err
	}
	user, err := s.repo.Get(ctx, sess.UserID)
	if err != nil || !user.IsActive {
		return "", fmt.Errorf("refresh for inactive user: %w", shared.ErrUnauthenticated)
	}
	return s.tokens.Access(user.ID, user.Email, user.Name(), user.GroupName)
}

// Logout revokes the refresh session. Unknown or expired tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.Parse(refreshToken, TokenRefresh)
	if err != nil {
		return nil
	}
	return s.sessions.Revoke(ctx, claims.ID)
}

// Identify resolves an access token into the request identity.
func (s *Service) Identify(accessToken string) (shared.CurrentUser, error) {
	claims, err := s.tokens.Parse(accessToken, TokenAccess)
	if err != nil {
		return shared.CurrentUser{}, fmt.Errorf("%w: %w", shared.ErrUnauthenticated, err)
	}
	id, err := claims.UserID()
	if err != nil {
		return shared.CurrentUser{}, fmt.Errorf("bad subject: %w", shared.ErrUnauthenticated)
	}
	return shared.CurrentUser{ID: id, Email: claims.Email, Name: claims.Name, Group: claims.Group}, nil
}
