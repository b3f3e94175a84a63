package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("conflict: email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("email must be a valid address")
	ErrInvalidPassword    = errors.New("password must be between 8 and 72 characters")
	ErrInvalidName        = errors.New("name must not be empty")
	ErrInvalidFieldType   = errors.New("invalid field type: must be text, signature, date, checkbox, or initials")
	ErrNoSubmitters       = errors.New("submission must have at least one submitter")
	ErrTooManySubmitters  = errors.New("submission exceeds maximum of 50 submitters")
	ErrAlreadyCompleted   = errors.New("submitter has already completed signing")
	ErrAlreadyDeclined    = errors.New("submitter has already declined")
	ErrSubmissionArchived = errors.New("submission is archived")
	ErrInvalidOTP         = errors.New("one-time code is invalid or expired")
	ErrInvalidSignature   = errors.New("webhook signature verification failed")
	ErrInvalidReminders   = errors.New("reminder thresholds must be positive and strictly increasing")
)
