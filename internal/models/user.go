package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole enumerates the two access levels.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
)

// Valid reports whether the role is one of the known levels.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// User is a global principal. InstitutionID stays nil until the user founds an
// institution or redeems an invite; until then the account is in the
// pre-onboarding state.
type User struct {
	ID            string    `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	DisplayName   string    `db:"display_name" json:"display_name"`
	Role          UserRole  `db:"role" json:"role"`
	InstitutionID *string   `db:"institution_id" json:"institution_id,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// JWTClaims carries the principal's identity, role and tenant binding.
type JWTClaims struct {
	UserID        string   `json:"user_id"`
	Email         string   `json:"email"`
	Role          UserRole `json:"role"`
	InstitutionID string   `json:"institution_id,omitempty"`
	jwt.RegisteredClaims
}

// LoginRequest is the credential payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the self-service signup payload. Registration grants
// admin because the registering principal founds their own institution next.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required"`
}

// AuthResponse is returned on successful login or registration.
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}

// UserInfo is the public projection of a principal.
type UserInfo struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	DisplayName   string   `json:"display_name"`
	Role          UserRole `json:"role"`
	InstitutionID *string  `json:"institution_id,omitempty"`
}

// Info builds the public projection.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:            u.ID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		Role:          u.Role,
		InstitutionID: u.InstitutionID,
	}
}
