package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sip-gateway/internal/domain"
)

// WebhookRepository persists webhook endpoint registrations.
type WebhookRepository interface {
	Create(ctx context.Context, reg *domain.WebhookRegistration) error
	List(ctx context.Context) ([]domain.WebhookRegistration, error)
}

type webhookRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookRepository returns a Postgres-backed implementation.
func NewWebhookRepository(pool *pgxpool.Pool) WebhookRepository {
	return &webhookRepository{pool: pool}
}

func (r *webhookRepository) Create(ctx context.Context, reg *domain.WebhookRegistration) error {
	const query = `
        INSERT INTO webhook_registrations (url, events, status, registered_by)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		reg.URL,
		reg.Events,
		reg.Status,
		reg.RegisteredBy,
	).Scan(&reg.ID, &reg.CreatedAt)
}

func (r *webhookRepository) List(ctx context.Context) ([]domain.WebhookRegistration, error) {
	const query = `
        SELECT id, url, events, status, registered_by, created_at
        FROM webhook_registrations ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []domain.WebhookRegistration
	for rows.Next() {
		var reg domain.WebhookRegistration
		if err := rows.Scan(
			&reg.ID,
			&reg.URL,
			&reg.Events,
			&reg.Status,
			&reg.RegisteredBy,
			&reg.CreatedAt,
		); err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
