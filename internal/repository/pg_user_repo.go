package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealdesk/sealdesk/internal/domain"
)

type pgUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgUserRepository returns a UserRepository backed by PostgreSQL.
func NewPgUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepository{pool: pool}
}

func (r *pgUserRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, account_id, email, name, password_hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.AccountID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *pgUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *pgUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *pgUserRepository) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, account_id, email, name, password_hash, otp_hash, otp_expires_at,
		       created_at, updated_at
		FROM users WHERE %s = $1`, column), value)

	var u domain.User
	err := row.Scan(
		&u.ID, &u.AccountID, &u.Email, &u.Name, &u.PasswordHash,
		&u.OTPHash, &u.OTPExpiresAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, err)
	}
	return &u, nil
}

func (r *pgUserRepository) SetOTP(ctx context.Context, id, otpHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET otp_hash = $1, otp_expires_at = $2, updated_at = NOW()
		WHERE id = $3`, otpHash, expiresAt, id)
	return err
}

func (r *pgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, otp_hash = NULL, otp_expires_at = NULL, updated_at = NOW()
		WHERE id = $2`, passwordHash, id)
	return err
}
