package domain

import "time"

// SubmissionStatus tracks the lifecycle of a signing workflow.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionCompleted SubmissionStatus = "completed"
	SubmissionArchived  SubmissionStatus = "archived"
)

// SubmitterStatus tracks one signer's progress inside a submission.
type SubmitterStatus string

const (
	SubmitterPending   SubmitterStatus = "pending"
	SubmitterOpened    SubmitterStatus = "opened"
	SubmitterCompleted SubmitterStatus = "completed"
	SubmitterDeclined  SubmitterStatus = "declined"
)

// Terminal reports whether the submitter can no longer act on the request.
// Terminal submitters are excluded from reminder candidate queries.
func (s SubmitterStatus) Terminal() bool {
	return s == SubmitterCompleted || s == SubmitterDeclined
}

// MaxReminders caps the reminder sequence: first, second, third, then silence.
const MaxReminders = 3

// ReminderConfig holds the three elapsed-time thresholds after which
// reminders 1/2/3 become due, measured from the submitter's creation time.
// All values share one unit (time.Duration); elapsed time is compared in the
// same unit, never converted across scales.
type ReminderConfig struct {
	FirstAfter  time.Duration `json:"first_after"`
	SecondAfter time.Duration `json:"second_after"`
	ThirdAfter  time.Duration `json:"third_after"`
}

func (c ReminderConfig) Validate() error {
	if c.FirstAfter <= 0 || c.SecondAfter <= c.FirstAfter || c.ThirdAfter <= c.SecondAfter {
		return ErrInvalidReminders
	}
	return nil
}

// threshold returns the elapsed-time threshold for the next reminder stage
// given how many reminders were already sent.
func (c ReminderConfig) threshold(sent int) time.Duration {
	switch sent {
	case 0:
		return c.FirstAfter
	case 1:
		return c.SecondAfter
	default:
		return c.ThirdAfter
	}
}

// Submission is one signing workflow instantiated from a template.
type Submission struct {
	ID         string           `json:"id"`
	AccountID  string           `json:"account_id"`
	TemplateID string           `json:"template_id"`
	Status     SubmissionStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Submitter is one signer inside a submission. Slug is the per-signer access
// token embedded in invitation links. Reminder state advances one stage per
// scheduler pass and never exceeds MaxReminders.
type Submitter struct {
	ID                 string          `json:"id"`
	SubmissionID       string          `json:"submission_id"`
	AccountID          string          `json:"account_id"`
	Email              string          `json:"email"`
	Name               string          `json:"name"`
	Slug               string          `json:"slug"`
	Status             SubmitterStatus `json:"status"`
	RemindersSent      int             `json:"reminders_sent"`
	LastReminderSentAt *time.Time      `json:"last_reminder_sent_at,omitempty"`
	Reminders          *ReminderConfig `json:"reminders,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// NextReminderDue decides whether the next sequential reminder should fire.
// It returns the 1-based stage number and true only when:
//   - the submitter is non-terminal, has a config, and is below the cap,
//   - elapsed time since creation has passed the next stage's threshold,
//   - at least cooldown has passed since the previous send (or none was sent).
//
// Stages are never skipped: a submitter overdue for both its 2nd and 3rd
// reminder gets only the 2nd; the 3rd waits for a later pass.
func (s *Submitter) NextReminderDue(now time.Time, cooldown time.Duration) (int, bool) {
	if s.Status.Terminal() || s.Reminders == nil || s.RemindersSent >= MaxReminders {
		return 0, false
	}
	if now.Sub(s.CreatedAt) < s.Reminders.threshold(s.RemindersSent) {
		return 0, false
	}
	if s.LastReminderSentAt != nil && now.Sub(*s.LastReminderSentAt) < cooldown {
		return 0, false
	}
	return s.RemindersSent + 1, true
}

// NewSubmitterRequest describes one signer in a submission create request.
type NewSubmitterRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateSubmissionRequest is the inbound payload for starting a workflow.
// Reminders is optional; omitting it disables the reminder sequence.
type CreateSubmissionRequest struct {
	TemplateID string                `json:"template_id"`
	Submitters []NewSubmitterRequest `json:"submitters"`
	Reminders  *ReminderConfig       `json:"reminders,omitempty"`
}

func (r *CreateSubmissionRequest) Validate() error {
	if len(r.Submitters) == 0 {
		return ErrNoSubmitters
	}
	if len(r.Submitters) > 50 {
		return ErrTooManySubmitters
	}
	for _, s := range r.Submitters {
		if !emailRegex.MatchString(s.Email) {
			return ErrInvalidEmail
		}
	}
	if r.Reminders != nil {
		return r.Reminders.Validate()
	}
	return nil
}

// SubmissionFilter holds query parameters for paginated submission listing.
type SubmissionFilter struct {
	Status *SubmissionStatus
	Page   int
	Limit  int
}
