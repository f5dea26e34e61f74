package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/sip-gateway/internal/auth"
	"github.com/spec-kit/sip-gateway/internal/config"
	"github.com/spec-kit/sip-gateway/internal/domain"
	"github.com/spec-kit/sip-gateway/internal/repository"
	apperrors "github.com/spec-kit/sip-gateway/pkg/util"
)

// SSOUser is the upstream identity service's view of an account.
type SSOUser struct {
	ID    string
	Email string
	Role  domain.Role
}

// SSOVerifier validates single sign-on tokens with the upstream identity
// service.
type SSOVerifier interface {
	Verify(ctx context.Context, token string) (*SSOUser, error)
}

// AuthService coordinates login flows and token lifecycle.
type AuthService struct {
	operators  repository.OperatorRepository
	tokens     *auth.TokenManager
	sso        SSOVerifier
	bcryptCost int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	OperatorRepo repository.OperatorRepository
	TokenManager *auth.TokenManager
	SSO          SSOVerifier
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		operators:  deps.OperatorRepo,
		tokens:     deps.TokenManager,
		sso:        deps.SSO,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login authenticates a local operator account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Operator, string, time.Time, error) {
	op, err := s.operators.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if !op.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(op.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokens.Issue(op.ID, op.Email, op.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return op, token, exp, nil
}

// SSOLogin exchanges a verified SSO token for a gateway token.
func (s *AuthService) SSOLogin(ctx context.Context, ssoToken string) (*SSOUser, string, time.Time, error) {
	if s.sso == nil {
		return nil, "", time.Time{}, apperrors.NewDomainError("SSO_DISABLED", "sso login not configured", 503, nil)
	}

	user, err := s.sso.Verify(ctx, ssoToken)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	role := user.Role
	if !auth.KnownRole(role) {
		role = domain.RoleUser
	}

	token, exp, err := s.tokens.Issue(user.ID, user.Email, role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Refresh issues a new token with identical claims and a fresh window.
func (s *AuthService) Refresh(ctx context.Context, tokenStr string) (string, time.Time, error) {
	return s.tokens.Refresh(ctx, tokenStr)
}

// Verify validates a token and returns the caller identity.
func (s *AuthService) Verify(ctx context.Context, tokenStr string) (*domain.Identity, error) {
	return s.tokens.Validate(ctx, tokenStr)
}

// Logout revokes the token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, tokenStr string) error {
	return s.tokens.Revoke(ctx, tokenStr)
}

// OperatorPatch carries a partial account update. Nil fields are left
// unchanged.
type OperatorPatch struct {
	Password *string
	Role     *domain.Role
	Active   *bool
}

// CreateOperator provisions a local account. New accounts start active.
func (s *AuthService) CreateOperator(ctx context.Context, email, password string, role domain.Role) (*domain.Operator, error) {
	if !auth.KnownRole(role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	op := &domain.Operator{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.operators.Create(ctx, op); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}
	return op, nil
}

// GetOperator loads an account by id.
func (s *AuthService) GetOperator(ctx context.Context, id string) (*domain.Operator, error) {
	op, err := s.operators.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("operator", map[string]any{"id": id})
		}
		return nil, err
	}
	return op, nil
}

// UpdateOperator applies a patch to an existing account. A password in
// the patch is re-hashed; a role must be one the gateway knows.
func (s *AuthService) UpdateOperator(ctx context.Context, id string, patch OperatorPatch) (*domain.Operator, error) {
	op, err := s.GetOperator(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Role != nil {
		if !auth.KnownRole(*patch.Role) {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *patch.Role})
		}
		op.Role = *patch.Role
	}
	if patch.Password != nil {
		hash, err := auth.HashPassword(*patch.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		op.PasswordHash = hash
	}
	if patch.Active != nil {
		op.Active = *patch.Active
	}

	if err := s.operators.Update(ctx, op); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("operator", map[string]any{"id": id})
		}
		return nil, err
	}
	return op, nil
}
