package repository

import (
	"context"
	"time"

	"github.com/sealdesk/sealdesk/internal/domain"
)

// UserRepository defines persistence operations for user accounts.
// The pgx implementation is in pg_user_repo.go; tests use a hand-written mock.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetOTP(ctx context.Context, id, otpHash string, expiresAt time.Time) error
	// UpdatePassword replaces the password hash and clears any pending OTP.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// TemplateRepository defines persistence operations for document templates.
// Every operation is scoped by accountID; cross-tenant reads return ErrNotFound.
type TemplateRepository interface {
	Create(ctx context.Context, t *domain.Template) error
	GetByID(ctx context.Context, accountID, id string) (*domain.Template, error)
	List(ctx context.Context, accountID string, f domain.TemplateFilter) ([]*domain.Template, int, error)
	Update(ctx context.Context, t *domain.Template) error
	Delete(ctx context.Context, accountID, id string) error
}

// SubmissionRepository defines persistence for submissions and their
// submitters, including the reminder scheduler's two operations:
// FindReminderCandidates and RecordReminderSent.
type SubmissionRepository interface {
	CreateWithSubmitters(ctx context.Context, s *domain.Submission, submitters []*domain.Submitter) error
	GetByID(ctx context.Context, accountID, id string) (*domain.Submission, []*domain.Submitter, error)
	List(ctx context.Context, accountID string, f domain.SubmissionFilter) ([]*domain.Submission, int, error)
	Archive(ctx context.Context, accountID, id string) error

	GetSubmitterBySlug(ctx context.Context, slug string) (*domain.Submitter, error)
	MarkSubmitterOpened(ctx context.Context, id string) error
	CompleteSubmitter(ctx context.Context, id string, completedAt time.Time) error
	DeclineSubmitter(ctx context.Context, id string) error

	// FindReminderCandidates returns submitters that may still be reminded:
	// non-terminal status, reminders_sent below the cap, and a configured
	// reminder schedule. Terminal and unconfigured rows are filtered at the
	// source so the scheduler never sees them.
	FindReminderCandidates(ctx context.Context) ([]*domain.Submitter, error)

	// RecordReminderSent atomically increments reminders_sent by one and
	// stamps last_reminder_sent_at.
	RecordReminderSent(ctx context.Context, submitterID string, sentAt time.Time) error
}

// PaymentRepository persists payment records drained from the work queue.
type PaymentRepository interface {
	// Insert writes one payment record and returns its assigned ID.
	Insert(ctx context.Context, p domain.Payment) (string, error)
}

// SubscriptionRepository tracks billing-provider subscription state.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, s *domain.Subscription) error
	GetByAccountID(ctx context.Context, accountID string) (*domain.Subscription, error)
}
