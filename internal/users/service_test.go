package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

type memoryRepo struct {
	users  map[int64]*User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]*User)}
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryRepo) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	var out []User
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) Create(ctx context.Context, u User) (int64, error) {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return 0, shared.ErrDuplicate
		}
	}
	m.nextID++
	u.ID = m.nextID
	m.users[u.ID] = &u
	return u.ID, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "password_hash":
			u.PasswordHash = v.(string)
		case "first_name":
			u.FirstName = v.(string)
		case "last_name":
			u.LastName = v.(string)
		case "email":
			u.Email = v.(string)
		case "custom_code":
			u.CustomCode = v.(string)
		case "job_title":
			u.JobTitle = v.(string)
		case "is_active":
			u.IsActive = v.(bool)
		}
	}
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	delete(m.users, id)
	return nil
}

func (m *memoryRepo) Groups(ctx context.Context) ([]Group, error) {
	return []Group{{ID: 1, Name: GroupAdmin}}, nil
}

func (m *memoryRepo) TouchLogin(ctx context.Context, id int64) error { return nil }

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	svc.cost = bcrypt.MinCost
	return svc, repo
}

func createUser(t *testing.T, svc *Service) *User {
	t.Helper()
	u, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "jdoe", Email: " JDoe@Example.com ", FirstName: "Jane", LastName: "Doe",
		Password: "correct-horse", Group: 1, Profile: ProfileRequest{CustomCode: "jd"},
	})
	require.NoError(t, err)
	return u
}

func TestCreateHashesPassword(t *testing.T) {
	svc, _ := newTestService()
	u := createUser(t, svc)

	assert.Equal(t, "jdoe@example.com", u.Email)
	assert.Equal(t, "JD", u.CustomCode)
	assert.True(t, u.IsActive)
	assert.Equal(t, "Jane Doe", u.Name())
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct-horse")))
}

func TestChangePassword(t *testing.T) {
	svc, repo := newTestService()
	u := createUser(t, svc)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, u.ID, ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "new-password"})
	var fe httpx.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "current_password")

	err = svc.ChangePassword(ctx, u.ID, ChangePasswordRequest{CurrentPassword: "correct-horse", NewPassword: "correct-horse"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, ChangePasswordRequest{CurrentPassword: "correct-horse", NewPassword: "battery-staple"}))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[u.ID].PasswordHash), []byte("battery-staple")))
}

func TestResetPasswordUnknownUser(t *testing.T) {
	svc, _ := newTestService()
	err := svc.ResetPassword(context.Background(), 42, ResetPasswordRequest{NewPassword: "whatever-123"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService()
	u := createUser(t, svc)

	updated, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileRequest{
		FirstName: "Janet", Email: "janet@example.com", Profile: ProfileRequest{CustomCode: "jt", JobTitle: "Sales Lead"},
	})
	require.NoError(t, err)
	assert.Equal(t, "JT", updated.CustomCode)
	assert.Equal(t, "Sales Lead", updated.JobTitle)
	assert.Equal(t, "Janet", updated.Name())
}
