package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sip-gateway/internal/domain"
)

// OperatorRepository defines persistence access for gateway accounts.
type OperatorRepository interface {
	Create(ctx context.Context, op *domain.Operator) error
	Update(ctx context.Context, op *domain.Operator) error
	GetByID(ctx context.Context, id string) (*domain.Operator, error)
	GetByEmail(ctx context.Context, email string) (*domain.Operator, error)
}

type operatorRepository struct {
	pool *pgxpool.Pool
}

// NewOperatorRepository returns a Postgres-backed implementation.
func NewOperatorRepository(pool *pgxpool.Pool) OperatorRepository {
	return &operatorRepository{pool: pool}
}

func (r *operatorRepository) Create(ctx context.Context, op *domain.Operator) error {
	const query = `
        INSERT INTO operators (email, password_hash, role, active)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		op.Email,
		op.PasswordHash,
		op.Role,
		op.Active,
	).Scan(&op.ID, &op.CreatedAt, &op.UpdatedAt)
}

func (r *operatorRepository) Update(ctx context.Context, op *domain.Operator) error {
	const query = `
        UPDATE operators SET email=$1, password_hash=$2, role=$3, active=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := r.pool.Exec(ctx, query,
		op.Email,
		op.PasswordHash,
		op.Role,
		op.Active,
		op.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *operatorRepository) GetByID(ctx context.Context, id string) (*domain.Operator, error) {
	const query = `
        SELECT id, email, password_hash, role, active, created_at, updated_at
        FROM operators WHERE id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *operatorRepository) GetByEmail(ctx context.Context, email string) (*domain.Operator, error) {
	const query = `
        SELECT id, email, password_hash, role, active, created_at, updated_at
        FROM operators WHERE email=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *operatorRepository) scanOne(row pgx.Row) (*domain.Operator, error) {
	var op domain.Operator
	if err := row.Scan(
		&op.ID,
		&op.Email,
		&op.PasswordHash,
		&op.Role,
		&op.Active,
		&op.CreatedAt,
		&op.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &op, nil
}
