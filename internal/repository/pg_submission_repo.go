package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealdesk/sealdesk/internal/domain"
)

type pgSubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewPgSubmissionRepository returns a SubmissionRepository backed by PostgreSQL.
// Reminder thresholds are stored as whole seconds (BIGINT) so the scheduler
// compares durations in a single unit end to end.
func NewPgSubmissionRepository(pool *pgxpool.Pool) SubmissionRepository {
	return &pgSubmissionRepository{pool: pool}
}

const submitterColumns = `
	id, submission_id, account_id, email, name, slug, status,
	reminders_sent, last_reminder_sent_at,
	reminder_first_secs, reminder_second_secs, reminder_third_secs,
	completed_at, created_at`

func (r *pgSubmissionRepository) CreateWithSubmitters(ctx context.Context, s *domain.Submission, submitters []*domain.Submitter) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO submissions (id, account_id, template_id, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.AccountID, s.TemplateID, s.Status, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	for _, sub := range submitters {
		var first, second, third *int64
		if sub.Reminders != nil {
			first = durationSecs(sub.Reminders.FirstAfter)
			second = durationSecs(sub.Reminders.SecondAfter)
			third = durationSecs(sub.Reminders.ThirdAfter)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO submitters
				(id, submission_id, account_id, email, name, slug, status, reminders_sent,
				 reminder_first_secs, reminder_second_secs, reminder_third_secs, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			sub.ID, sub.SubmissionID, sub.AccountID, sub.Email, sub.Name, sub.Slug, sub.Status,
			sub.RemindersSent, first, second, third, sub.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert submitter: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit submission: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) GetByID(ctx context.Context, accountID, id string) (*domain.Submission, []*domain.Submitter, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, account_id, template_id, status, created_at, updated_at
		FROM submissions WHERE id = $1 AND account_id = $2`, id, accountID)

	var s domain.Submission
	err := row.Scan(&s.ID, &s.AccountID, &s.TemplateID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get submission: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+submitterColumns+`
		FROM submitters WHERE submission_id = $1 ORDER BY created_at ASC`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get submitters: %w", err)
	}
	defer rows.Close()

	submitters, err := scanSubmitters(rows)
	return &s, submitters, err
}

func (r *pgSubmissionRepository) List(ctx context.Context, accountID string, f domain.SubmissionFilter) ([]*domain.Submission, int, error) {
	where := " WHERE account_id = $1"
	args := []any{accountID}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM submissions"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`
		SELECT id, account_id, template_id, status, created_at, updated_at
		FROM submissions%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var submissions []*domain.Submission
	for rows.Next() {
		var s domain.Submission
		if err := rows.Scan(&s.ID, &s.AccountID, &s.TemplateID, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		submissions = append(submissions, &s)
	}
	return submissions, total, rows.Err()
}

func (r *pgSubmissionRepository) Archive(ctx context.Context, accountID, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE submissions SET status = 'archived', updated_at = NOW()
		WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return fmt.Errorf("archive submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgSubmissionRepository) GetSubmitterBySlug(ctx context.Context, slug string) (*domain.Submitter, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+submitterColumns+`
		FROM submitters WHERE slug = $1`, slug)

	sub, err := scanSubmitter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return sub, err
}

func (r *pgSubmissionRepository) MarkSubmitterOpened(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE submitters SET status = 'opened'
		WHERE id = $1 AND status = 'pending'`, id)
	return err
}

func (r *pgSubmissionRepository) CompleteSubmitter(ctx context.Context, id string, completedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Guarding on status makes the transition race-safe: of two concurrent
	// completes, only one matches a row and charges the signature fee.
	var submissionID string
	err = tx.QueryRow(ctx, `
		UPDATE submitters SET status = 'completed', completed_at = $1
		WHERE id = $2 AND status NOT IN ('completed', 'declined')
		RETURNING submission_id`, completedAt, id).Scan(&submissionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.terminalSubmitterErr(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("complete submitter: %w", err)
	}

	// The submission completes once no submitter remains outstanding.
	_, err = tx.Exec(ctx, `
		UPDATE submissions s SET status = 'completed', updated_at = NOW()
		WHERE s.id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM submitters
			WHERE submission_id = s.id AND status NOT IN ('completed','declined')
		  )`, submissionID)
	if err != nil {
		return fmt.Errorf("roll up submission status: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *pgSubmissionRepository) DeclineSubmitter(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE submitters SET status = 'declined'
		WHERE id = $1 AND status NOT IN ('completed', 'declined')`, id)
	if err != nil {
		return fmt.Errorf("decline submitter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.terminalSubmitterErr(ctx, id)
	}
	return nil
}

// terminalSubmitterErr explains why a status transition matched no rows:
// the submitter is already in a terminal state, or it does not exist.
func (r *pgSubmissionRepository) terminalSubmitterErr(ctx context.Context, id string) error {
	var status domain.SubmitterStatus
	err := r.pool.QueryRow(ctx,
		`SELECT status FROM submitters WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load submitter status: %w", err)
	}
	if status == domain.SubmitterDeclined {
		return domain.ErrAlreadyDeclined
	}
	return domain.ErrAlreadyCompleted
}

func (r *pgSubmissionRepository) FindReminderCandidates(ctx context.Context) ([]*domain.Submitter, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+submitterColumns+`
		FROM submitters
		WHERE status IN ('pending','opened')
		  AND reminders_sent < $1
		  AND reminder_first_secs IS NOT NULL
		LIMIT 500`, domain.MaxReminders)
	if err != nil {
		return nil, fmt.Errorf("find reminder candidates: %w", err)
	}
	defer rows.Close()
	return scanSubmitters(rows)
}

func (r *pgSubmissionRepository) RecordReminderSent(ctx context.Context, submitterID string, sentAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE submitters
		SET reminders_sent = reminders_sent + 1, last_reminder_sent_at = $1
		WHERE id = $2 AND reminders_sent < $3`,
		sentAt, submitterID, domain.MaxReminders)
	if err != nil {
		return fmt.Errorf("record reminder sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ---- helpers ----

func scanSubmitter(row pgx.Row) (*domain.Submitter, error) {
	var sub domain.Submitter
	var first, second, third *int64
	err := row.Scan(
		&sub.ID, &sub.SubmissionID, &sub.AccountID, &sub.Email, &sub.Name, &sub.Slug, &sub.Status,
		&sub.RemindersSent, &sub.LastReminderSentAt,
		&first, &second, &third,
		&sub.CompletedAt, &sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if first != nil && second != nil && third != nil {
		sub.Reminders = &domain.ReminderConfig{
			FirstAfter:  time.Duration(*first) * time.Second,
			SecondAfter: time.Duration(*second) * time.Second,
			ThirdAfter:  time.Duration(*third) * time.Second,
		}
	}
	return &sub, nil
}

func scanSubmitters(rows pgx.Rows) ([]*domain.Submitter, error) {
	var result []*domain.Submitter
	for rows.Next() {
		sub, err := scanSubmitter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

func durationSecs(d time.Duration) *int64 {
	secs := int64(d / time.Second)
	return &secs
}
