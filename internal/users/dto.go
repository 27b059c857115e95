package users

import "github.com/quotedesk/quotedesk/internal/shared"

type ProfileRequest struct {
	CustomCode                string `json:"custom_code" validate:"omitempty,alphanum,max=10"`
	JobTitle                  string `json:"job_title" validate:"max=100"`
	DefaultQuotationSignature *int64 `json:"default_quotation_signature,omitempty" validate:"omitempty,gt=0"`
}

type CreateUserRequest struct {
	Username  string         `json:"username" validate:"required,max=150"`
	Email     string         `json:"email" validate:"required,email"`
	FirstName string         `json:"first_name" validate:"max=150"`
	LastName  string         `json:"last_name" validate:"max=150"`
	Password  string         `json:"password" validate:"required,min=8,max=128"`
	Group     int64          `json:"group" validate:"required,gt=0"`
	IsActive  *bool          `json:"is_active,omitempty"`
	Profile   ProfileRequest `json:"userprofile"`
}

type UpdateUserRequest struct {
	Username  *string         `json:"username,omitempty" validate:"omitempty,min=1,max=150"`
	Email     *string         `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string         `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  *string         `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Group     *int64          `json:"group,omitempty" validate:"omitempty,gt=0"`
	IsActive  *bool           `json:"is_active,omitempty"`
	Profile   *ProfileRequest `json:"userprofile,omitempty"`
}

// UpdateProfileRequest is what a user may change about themselves.
type UpdateProfileRequest struct {
	FirstName string         `json:"first_name" validate:"max=150"`
	LastName  string         `json:"last_name" validate:"max=150"`
	Email     string         `json:"email" validate:"required,email"`
	Profile   ProfileRequest `json:"userprofile"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

type ListUsersRequest struct {
	shared.ListParams
	IsActive *bool
}
