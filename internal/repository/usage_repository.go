package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sip-gateway/internal/domain"
)

// UsageRepository retains usage records for audit and reconciliation.
type UsageRepository interface {
	Insert(ctx context.Context, rec *domain.UsageRecord) error
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.UsageRecord, error)
}

type usageRepository struct {
	pool *pgxpool.Pool
}

// NewUsageRepository returns a Postgres-backed implementation.
func NewUsageRepository(pool *pgxpool.Pool) UsageRepository {
	return &usageRepository{pool: pool}
}

func (r *usageRepository) Insert(ctx context.Context, rec *domain.UsageRecord) error {
	const query = `
        INSERT INTO usage_records (id, subject_id, kind, duration_seconds, cost, recorded_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.SubjectID,
		rec.Kind,
		rec.DurationSeconds,
		rec.Cost,
		rec.Timestamp,
	)
	return err
}

func (r *usageRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]domain.UsageRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
        SELECT id, subject_id, kind, duration_seconds, cost, recorded_at
        FROM usage_records WHERE subject_id=$1
        ORDER BY recorded_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, subjectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.UsageRecord
	for rows.Next() {
		var rec domain.UsageRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.SubjectID,
			&rec.Kind,
			&rec.DurationSeconds,
			&rec.Cost,
			&rec.Timestamp,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
