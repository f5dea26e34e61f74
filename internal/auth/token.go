package auth

import (
	"context"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/sip-gateway/internal/domain"
)

// Token validation failure kinds. Callers map these to transport errors.
var (
	ErrExpiredToken     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMalformedToken   = errors.New("malformed token")
	ErrRevokedToken     = errors.New("token revoked")
)

// TokenManager issues and validates signed gateway tokens.
type TokenManager struct {
	secret      []byte
	ttl         time.Duration
	revocations RevocationStore
}

// NewTokenManager builds a new manager. The revocation store may be nil,
// in which case tokens are invalidated only by expiry.
func NewTokenManager(secret string, ttl time.Duration, revocations RevocationStore) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, revocations: revocations}
}

// Claims describes the gateway JWT payload.
type Claims struct {
	Email        string      `json:"email,omitempty"`
	Role         domain.Role `json:"role"`
	Capabilities []string    `json:"permissions"`
	jwt.RegisteredClaims
}

// Issue builds and signs a token for the subject with the capability
// closure of its role. Expiry is deterministic: issuedAt + TTL.
func (tm *TokenManager) Issue(subjectID, email string, role domain.Role) (string, time.Time, error) {
	caps, err := CapabilitiesForRole(role)
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Email:        email,
		Role:         role,
		Capabilities: capabilityStrings(caps),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Validate parses the token and returns the caller identity. Failure kinds
// are ErrExpiredToken, ErrInvalidSignature, ErrMalformedToken and
// ErrRevokedToken.
func (tm *TokenManager) Validate(ctx context.Context, tokenStr string) (*domain.Identity, error) {
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return nil, err
	}

	if tm.revocations != nil {
		revoked, err := tm.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}

	return identityFromClaims(claims), nil
}

// Refresh issues a new token with identical claims and a fresh TTL window.
// It requires a currently valid token; there is no grace window after expiry.
func (tm *TokenManager) Refresh(ctx context.Context, tokenStr string) (string, time.Time, error) {
	identity, err := tm.Validate(ctx, tokenStr)
	if err != nil {
		return "", time.Time{}, err
	}
	return tm.Issue(identity.SubjectID, identity.Email, identity.Role)
}

// Revoke marks the token's ID as invalid until its natural expiry.
func (tm *TokenManager) Revoke(ctx context.Context, tokenStr string) error {
	if tm.revocations == nil {
		return nil
	}
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return err
	}
	return tm.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (tm *TokenManager) parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidSignature
		}
		return tm.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformedToken
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

func identityFromClaims(claims *Claims) *domain.Identity {
	caps := make([]domain.Capability, 0, len(claims.Capabilities))
	for _, c := range claims.Capabilities {
		caps = append(caps, domain.Capability(c))
	}
	return &domain.Identity{
		SubjectID:    claims.Subject,
		Email:        claims.Email,
		Role:         claims.Role,
		Capabilities: caps,
		TokenID:      claims.ID,
	}
}

func capabilityStrings(caps []domain.Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}
