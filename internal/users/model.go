package users

import "time"

// Profile holds per-user document defaults.
type Profile struct {
	CustomCode                string `json:"custom_code" db:"custom_code"`
	JobTitle                  string `json:"job_title" db:"job_title"`
	DefaultQuotationSignature *int64 `json:"default_quotation_signature" db:"default_quotation_signature"`
}

// User represents a user account for management.
type User struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Group        *int64     `json:"group" db:"group_id"`
	GroupName    string     `json:"group_name" db:"group_name"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Profile      `json:"userprofile"`
	LastLogin    *time.Time `json:"last_login" db:"last_login"`
	DateJoined   time.Time  `json:"date_joined" db:"date_joined"`
}

// Name is the display name used in status change logs.
func (u User) Name() string {
	full := u.FirstName
	if u.LastName != "" {
		if full != "" {
			full += " "
		}
		full += u.LastName
	}
	if full == "" {
		return u.Username
	}
	return full
}

type Group struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// GroupAdmin is the group allowed to manage user accounts.
const GroupAdmin = "Admin"
