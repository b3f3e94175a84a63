package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealdesk/sealdesk/internal/domain"
)

type pgTemplateRepository struct {
	pool *pgxpool.Pool
}

// NewPgTemplateRepository returns a TemplateRepository backed by PostgreSQL.
// Fields are stored as a JSONB column.
func NewPgTemplateRepository(pool *pgxpool.Pool) TemplateRepository {
	return &pgTemplateRepository{pool: pool}
}

func (r *pgTemplateRepository) Create(ctx context.Context, t *domain.Template) error {
	fields, err := json.Marshal(t.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO templates (id, account_id, name, document_key, fields, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		t.ID, t.AccountID, t.Name, t.DocumentKey, fields, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (r *pgTemplateRepository) GetByID(ctx context.Context, accountID, id string) (*domain.Template, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, account_id, name, document_key, fields, created_at, updated_at
		FROM templates WHERE id = $1 AND account_id = $2`, id, accountID)

	t, err := scanTemplate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return t, err
}

func (r *pgTemplateRepository) List(ctx context.Context, accountID string, f domain.TemplateFilter) ([]*domain.Template, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM templates WHERE account_id = $1`, accountID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count templates: %w", err)
	}

	offset := (f.Page - 1) * f.Limit
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, name, document_key, fields, created_at, updated_at
		FROM templates WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, accountID, f.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []*domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		templates = append(templates, t)
	}
	return templates, total, rows.Err()
}

func (r *pgTemplateRepository) Update(ctx context.Context, t *domain.Template) error {
	fields, err := json.Marshal(t.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE templates
		SET name = $1, document_key = $2, fields = $3, updated_at = NOW()
		WHERE id = $4 AND account_id = $5`,
		t.Name, t.DocumentKey, fields, t.ID, t.AccountID,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgTemplateRepository) Delete(ctx context.Context, accountID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM templates WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanTemplate reads a single template row from any pgx row type.
func scanTemplate(row pgx.Row) (*domain.Template, error) {
	var t domain.Template
	var fields []byte
	err := row.Scan(&t.ID, &t.AccountID, &t.Name, &t.DocumentKey, &fields, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &t.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return &t, nil
}
