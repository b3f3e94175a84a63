package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealdesk/sealdesk/internal/domain"
)

type pgPaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPgPaymentRepository returns a PaymentRepository backed by PostgreSQL.
func NewPgPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &pgPaymentRepository{pool: pool}
}

func (r *pgPaymentRepository) Insert(ctx context.Context, p domain.Payment) (string, error) {
	id := uuid.New().String()
	var submissionID *string
	if p.SubmissionID != "" {
		submissionID = &p.SubmissionID
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payments (id, account_id, submission_id, kind, amount_cents, currency, occurred_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, p.AccountID, submissionID, p.Kind, p.AmountCents, p.Currency, p.OccurredAt, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert payment: %w", err)
	}
	return id, nil
}
