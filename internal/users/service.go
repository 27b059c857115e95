package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
)

// Service wraps user management rules.
type Service struct {
	repo Repository
	cost int
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	group := req.Group
	u := User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Group:        &group,
		IsActive:     true,
		PasswordHash: hash,
		Profile: Profile{
			CustomCode:                strings.ToUpper(req.Profile.CustomCode),
			JobTitle:                  req.Profile.JobTitle,
			DefaultQuotationSignature: req.Profile.DefaultQuotationSignature,
		},
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	id, err := s.repo.Create(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func profileUpdates(updates map[string]any, p ProfileRequest) {
	updates["custom_code"] = strings.ToUpper(p.CustomCode)
	updates["job_title"] = p.JobTitle
	updates["default_quotation_signature"] = p.DefaultQuotationSignature
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateUserRequest) (*User, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := make(map[string]any)
	if req.Username != nil {
		updates["username"] = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Group != nil {
		updates["group_id"] = *req.Group
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Profile != nil {
		profileUpdates(updates, *req.Profile)
	}
	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Groups(ctx context.Context) ([]Group, error) {
	return s.repo.Groups(ctx)
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*User, error) {
	updates := map[string]any{
		"first_name": strings.TrimSpace(req.FirstName),
		"last_name":  strings.TrimSpace(req.LastName),
		"email":      strings.ToLower(strings.TrimSpace(req.Email)),
	}
	profileUpdates(updates, req.Profile)
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.repo.Get(ctx, userID)
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return httpx.Invalid("current_password", "Current password is incorrect.")
		}
		return err
	}
	if req.CurrentPassword == req.NewPassword {
		return httpx.Invalid("new_password", "New password must differ from the current password.")
	}
	return s.setPassword(ctx, userID, req.NewPassword)
}

// ResetPassword sets a user's password without knowing the old one.
func (s *Service) ResetPassword(ctx context.Context, userID int64, req ResetPasswordRequest) error {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return err
	}
	return s.setPassword(ctx, userID, req.NewPassword)
}

func (s *Service) setPassword(ctx context.Context, userID int64, password string) error {
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, map[string]any{"password_hash": hash})
}
