package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// RegisterRequest is the sign-up payload. Student and parent specific fields are validated
// against the requested role by the auth service.
type RegisterRequest struct {
	Email            string        `json:"email" validate:"required,email"`
	Password         string        `json:"password" validate:"required,min=6"`
	FirstName        string        `json:"firstName" validate:"required,max=100"`
	LastName         string        `json:"lastName" validate:"required,max=100"`
	Phone            string        `json:"phone" validate:"required,max=40"`
	Role             UserRole      `json:"userType" validate:"required,oneof=student parent"`
	Grade            *int          `json:"grade" validate:"omitempty,min=9,max=12"`
	School           string        `json:"school" validate:"max=200"`
	Bio              string        `json:"bio" validate:"max=500"`
	HourlyRate       *float64      `json:"hourlyRate" validate:"omitempty,min=5,max=50"`
	Experience       string        `json:"experience" validate:"max=200"`
	Certifications   []string      `json:"certifications" validate:"max=20,dive,max=100"`
	Location         string        `json:"location" validate:"max=200"`
	Availability     *Availability `json:"availability"`
	EmergencyContact string        `json:"emergencyContact" validate:"max=200"`
	IP               string        `json:"-"`
	UserAgent        string        `json:"-"`
}

// UpdateProfileRequest lists the profile fields a user may change. Nil means unchanged.
type UpdateProfileRequest struct {
	FirstName        *string       `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName         *string       `json:"lastName" validate:"omitempty,min=1,max=100"`
	Phone            *string       `json:"phone" validate:"omitempty,min=1,max=40"`
	Bio              *string       `json:"bio" validate:"omitempty,max=500"`
	HourlyRate       *float64      `json:"hourlyRate" validate:"omitempty,min=5,max=50"`
	Experience       *string       `json:"experience" validate:"omitempty,max=200"`
	Certifications   []string      `json:"certifications" validate:"omitempty,max=20,dive,max=100"`
	Location         *string       `json:"location" validate:"omitempty,max=200"`
	Availability     *Availability `json:"availability"`
	EmergencyContact *string       `json:"emergencyContact" validate:"omitempty,max=200"`
	ProfileImage     *string       `json:"profileImage" validate:"omitempty,url,max=500"`
}

// AuthResponse returns the issued token and account.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expiresIn"`
	IssuedAt  time.Time `json:"issuedAt"`
	User      *User     `json:"user"`
}

// UserInfo describes the authenticated principal.
type UserInfo struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Role  UserRole `json:"userType"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}
