package auth

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sip-gateway/internal/domain"
)

const testSecret = "test-secret"

func newTestManager(ttl time.Duration) *TokenManager {
	return NewTokenManager(testSecret, ttl, NewMemoryRevocationStore())
}

func TestIssueAndValidate(t *testing.T) {
	tm := newTestManager(time.Hour)

	token, exp, err := tm.Issue("user-1", "op@example.com", domain.RoleOperator)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	identity, err := tm.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.SubjectID)
	assert.Equal(t, "op@example.com", identity.Email)
	assert.Equal(t, domain.RoleOperator, identity.Role)
	assert.Equal(t, []domain.Capability{domain.CapabilityOperator, domain.CapabilityBasic}, identity.Capabilities)
	assert.NotEmpty(t, identity.TokenID)
}

func TestIssueUnknownRole(t *testing.T) {
	tm := newTestManager(time.Hour)

	_, _, err := tm.Issue("user-1", "x@example.com", "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestValidateExpired(t *testing.T) {
	tm := &TokenManager{secret: []byte(testSecret), ttl: -time.Minute}

	token, _, err := tm.Issue("user-1", "x@example.com", domain.RoleUser)
	require.NoError(t, err)

	_, err = tm.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateWrongSecret(t *testing.T) {
	tm := newTestManager(time.Hour)
	other := NewTokenManager("other-secret", time.Hour, nil)

	token, _, err := other.Issue("user-1", "x@example.com", domain.RoleUser)
	require.NoError(t, err)

	_, err = tm.Validate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateMalformed(t *testing.T) {
	tm := newTestManager(time.Hour)

	_, err := tm.Validate(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestValidateRejectsUnsignedToken(t *testing.T) {
	tm := newTestManager(time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "attacker",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenStr, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.Validate(context.Background(), tokenStr)
	assert.Error(t, err)
}

func TestRefresh(t *testing.T) {
	tm := newTestManager(time.Hour)

	token, _, err := tm.Issue("user-1", "x@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	refreshed, exp, err := tm.Refresh(context.Background(), token)
	require.NoError(t, err)
	assert.NotEqual(t, token, refreshed)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	identity, err := tm.Validate(context.Background(), refreshed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.SubjectID)
	assert.Equal(t, domain.RoleAdmin, identity.Role)
}

func TestRefreshExpiredToken(t *testing.T) {
	expired := &TokenManager{secret: []byte(testSecret), ttl: -time.Minute}
	token, _, err := expired.Issue("user-1", "x@example.com", domain.RoleUser)
	require.NoError(t, err)

	tm := newTestManager(time.Hour)
	_, _, err = tm.Refresh(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRevoke(t *testing.T) {
	tm := newTestManager(time.Hour)
	ctx := context.Background()

	token, _, err := tm.Issue("user-1", "x@example.com", domain.RoleUser)
	require.NoError(t, err)

	_, err = tm.Validate(ctx, token)
	require.NoError(t, err)

	require.NoError(t, tm.Revoke(ctx, token))

	_, err = tm.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrRevokedToken)
}

func TestRevokeDoesNotAffectOtherTokens(t *testing.T) {
	tm := newTestManager(time.Hour)
	ctx := context.Background()

	first, _, err := tm.Issue("user-1", "x@example.com", domain.RoleUser)
	require.NoError(t, err)
	second, _, err := tm.Issue("user-1", "x@example.com", domain.RoleUser)
	require.NoError(t, err)

	require.NoError(t, tm.Revoke(ctx, first))

	_, err = tm.Validate(ctx, second)
	assert.NoError(t, err)
}

func TestMemoryRevocationStoreExpiry(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "tok-1", time.Now().Add(-time.Second)))

	revoked, err := store.IsRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry past its deadline should be dropped")
}
