package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/sip-gateway/internal/auth"
	"github.com/spec-kit/sip-gateway/internal/config"
	"github.com/spec-kit/sip-gateway/internal/domain"
	apperrors "github.com/spec-kit/sip-gateway/pkg/util"
)

type fakeOperatorRepo struct {
	byID      map[string]*domain.Operator
	createErr error
}

func newFakeOperatorRepo() *fakeOperatorRepo {
	return &fakeOperatorRepo{byID: make(map[string]*domain.Operator)}
}

func (r *fakeOperatorRepo) Create(_ context.Context, op *domain.Operator) error {
	if r.createErr != nil {
		return r.createErr
	}
	op.ID = "op-1"
	op.CreatedAt = time.Now()
	op.UpdatedAt = op.CreatedAt
	cp := *op
	r.byID[op.ID] = &cp
	return nil
}

func (r *fakeOperatorRepo) Update(_ context.Context, op *domain.Operator) error {
	if _, ok := r.byID[op.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *op
	r.byID[op.ID] = &cp
	return nil
}

func (r *fakeOperatorRepo) GetByID(_ context.Context, id string) (*domain.Operator, error) {
	op, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *op
	return &cp, nil
}

func (r *fakeOperatorRepo) GetByEmail(_ context.Context, email string) (*domain.Operator, error) {
	for _, op := range r.byID {
		if op.Email == email {
			cp := *op
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func newAuthService(repo *fakeOperatorRepo) *AuthService {
	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.BcryptCost = bcrypt.MinCost
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Hour, auth.NewMemoryRevocationStore())
	return NewAuthService(cfg, AuthDependencies{OperatorRepo: repo, TokenManager: tokens})
}

func TestCreateOperator(t *testing.T) {
	repo := newFakeOperatorRepo()
	svc := newAuthService(repo)

	op, err := svc.CreateOperator(context.Background(), "ops@example.com", "secret", domain.RoleOperator)
	require.NoError(t, err)

	assert.Equal(t, "op-1", op.ID)
	assert.Equal(t, domain.RoleOperator, op.Role)
	assert.True(t, op.Active)
	assert.NoError(t, auth.ComparePassword(op.PasswordHash, "secret"))
}

func TestCreateOperatorRejectsUnknownRole(t *testing.T) {
	svc := newAuthService(newFakeOperatorRepo())

	_, err := svc.CreateOperator(context.Background(), "ops@example.com", "secret", "superuser")

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestCreateOperatorDuplicateEmail(t *testing.T) {
	repo := newFakeOperatorRepo()
	repo.createErr = &pgconn.PgError{Code: "23505"}
	svc := newAuthService(repo)

	_, err := svc.CreateOperator(context.Background(), "ops@example.com", "secret", domain.RoleUser)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestGetOperatorNotFound(t *testing.T) {
	svc := newAuthService(newFakeOperatorRepo())

	_, err := svc.GetOperator(context.Background(), "missing")

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestUpdateOperatorPatchesOnlyGivenFields(t *testing.T) {
	repo := newFakeOperatorRepo()
	svc := newAuthService(repo)
	created, err := svc.CreateOperator(context.Background(), "ops@example.com", "secret", domain.RoleUser)
	require.NoError(t, err)

	active := false
	role := domain.RoleOperator
	updated, err := svc.UpdateOperator(context.Background(), created.ID, OperatorPatch{
		Role:   &role,
		Active: &active,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RoleOperator, updated.Role)
	assert.False(t, updated.Active)
	assert.Equal(t, created.Email, updated.Email)
	assert.NoError(t, auth.ComparePassword(updated.PasswordHash, "secret"))
}

func TestUpdateOperatorRehashesPassword(t *testing.T) {
	repo := newFakeOperatorRepo()
	svc := newAuthService(repo)
	created, err := svc.CreateOperator(context.Background(), "ops@example.com", "secret", domain.RoleUser)
	require.NoError(t, err)

	password := "rotated"
	updated, err := svc.UpdateOperator(context.Background(), created.ID, OperatorPatch{Password: &password})
	require.NoError(t, err)

	assert.NoError(t, auth.ComparePassword(updated.PasswordHash, "rotated"))
	assert.Error(t, auth.ComparePassword(updated.PasswordHash, "secret"))
}

func TestUpdateOperatorUnknownRole(t *testing.T) {
	repo := newFakeOperatorRepo()
	svc := newAuthService(repo)
	created, err := svc.CreateOperator(context.Background(), "ops@example.com", "secret", domain.RoleUser)
	require.NoError(t, err)

	role := domain.Role("superuser")
	_, err = svc.UpdateOperator(context.Background(), created.ID, OperatorPatch{Role: &role})

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestLoginDisabledAccount(t *testing.T) {
	repo := newFakeOperatorRepo()
	svc := newAuthService(repo)
	created, err := svc.CreateOperator(context.Background(), "ops@example.com", "secret", domain.RoleUser)
	require.NoError(t, err)

	active := false
	_, err = svc.UpdateOperator(context.Background(), created.ID, OperatorPatch{Active: &active})
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "ops@example.com", "secret")

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
}
