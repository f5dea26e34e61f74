package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sip-gateway/internal/domain"
)

func TestCapabilitiesForRole(t *testing.T) {
	tests := []struct {
		role domain.Role
		want []domain.Capability
	}{
		{domain.RoleAdmin, []domain.Capability{domain.CapabilityAdmin, domain.CapabilityOperator, domain.CapabilityBasic}},
		{domain.RoleOperator, []domain.Capability{domain.CapabilityOperator, domain.CapabilityBasic}},
		{domain.RoleUser, []domain.Capability{domain.CapabilityBasic}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			caps, err := CapabilitiesForRole(tt.role)
			require.NoError(t, err)
			assert.Equal(t, tt.want, caps)
		})
	}
}

func TestCapabilitiesForRoleUnknown(t *testing.T) {
	_, err := CapabilitiesForRole("superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

// Higher roles must hold every capability of the roles below them.
func TestRoleHierarchyIsTransitive(t *testing.T) {
	order := []domain.Role{domain.RoleUser, domain.RoleOperator, domain.RoleAdmin}

	for i := 1; i < len(order); i++ {
		lower, _ := CapabilitiesForRole(order[i-1])
		higher, _ := CapabilitiesForRole(order[i])
		for _, cap := range lower {
			assert.Contains(t, higher, cap, "%s should inherit %s from %s", order[i], cap, order[i-1])
		}
	}
}

func TestCapabilitiesForRoleReturnsCopy(t *testing.T) {
	caps, err := CapabilitiesForRole(domain.RoleUser)
	require.NoError(t, err)
	caps[0] = "sip:tampered"

	again, err := CapabilitiesForRole(domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, []domain.Capability{domain.CapabilityBasic}, again)
}

func TestKnownRole(t *testing.T) {
	assert.True(t, KnownRole(domain.RoleAdmin))
	assert.True(t, KnownRole(domain.RoleOperator))
	assert.True(t, KnownRole(domain.RoleUser))
	assert.False(t, KnownRole("guest"))
	assert.False(t, KnownRole(""))
}
