package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest holds credentials for authenticating an administrator.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and account info.
type LoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	User      AdminInfo `json:"user"`
}

// RegisterRequest creates a new administrator account.
type RegisterRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=64"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required"`
	Name       string `json:"name" validate:"omitempty,max=100"`
	Surname    string `json:"surname" validate:"omitempty,max=100"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// UpdateProfileRequest changes the mutable profile fields.
type UpdateProfileRequest struct {
	Department string `json:"department" validate:"required"`
}

// ProfileResponse wraps the current account.
type ProfileResponse struct {
	User AdminInfo `json:"user"`
}

// JWTClaims represents the JWT payload for session tokens. Subject holds
// the account id.
type JWTClaims struct {
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       AdminRole `json:"role"`
	Department string    `json:"department,omitempty"`
	jwt.RegisteredClaims
}
