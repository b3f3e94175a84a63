package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealdesk/sealdesk/internal/domain"
)

type pgSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewPgSubscriptionRepository returns a SubscriptionRepository backed by PostgreSQL.
func NewPgSubscriptionRepository(pool *pgxpool.Pool) SubscriptionRepository {
	return &pgSubscriptionRepository{pool: pool}
}

func (r *pgSubscriptionRepository) Upsert(ctx context.Context, s *domain.Subscription) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscriptions (account_id, customer_id, plan, status, current_period_end, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (account_id) DO UPDATE
		SET customer_id = EXCLUDED.customer_id,
		    plan = EXCLUDED.plan,
		    status = EXCLUDED.status,
		    current_period_end = EXCLUDED.current_period_end,
		    updated_at = EXCLUDED.updated_at`,
		s.AccountID, s.CustomerID, s.Plan, s.Status, s.CurrentPeriodEnd, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (r *pgSubscriptionRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT account_id, customer_id, plan, status, current_period_end, updated_at
		FROM subscriptions WHERE account_id = $1`, accountID)

	var s domain.Subscription
	err := row.Scan(&s.AccountID, &s.CustomerID, &s.Plan, &s.Status, &s.CurrentPeriodEnd, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return &s, nil
}
