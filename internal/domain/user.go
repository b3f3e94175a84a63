package domain

import (
	"regexp"
	"time"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User is an account owner. All tenant-owned rows carry the user's AccountID.
type User struct {
	ID           string     `json:"id"`
	AccountID    string     `json:"account_id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	OTPHash      *string    `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RegisterRequest is the inbound payload for account registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	if !emailRegex.MatchString(r.Email) {
		return ErrInvalidEmail
	}
	if r.Name == "" {
		return ErrInvalidName
	}
	// bcrypt rejects inputs over 72 bytes, so the cap is enforced up front.
	if len(r.Password) < 8 || len(r.Password) > 72 {
		return ErrInvalidPassword
	}
	return nil
}

// LoginRequest is the inbound payload for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if !emailRegex.MatchString(r.Email) {
		return ErrInvalidEmail
	}
	if r.Password == "" {
		return ErrInvalidPassword
	}
	return nil
}

// ForgotPasswordRequest asks for a reset OTP to be emailed.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest redeems an emailed OTP for a new password.
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (r *ResetPasswordRequest) Validate() error {
	if !emailRegex.MatchString(r.Email) {
		return ErrInvalidEmail
	}
	if r.Code == "" {
		return ErrInvalidOTP
	}
	if len(r.Password) < 8 || len(r.Password) > 72 {
		return ErrInvalidPassword
	}
	return nil
}
