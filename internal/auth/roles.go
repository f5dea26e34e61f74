package auth

import (
	"errors"

	"github.com/spec-kit/sip-gateway/internal/domain"
)

// ErrInvalidRole is returned when a token is requested for an unknown role.
var ErrInvalidRole = errors.New("invalid role")

// roleCapabilities maps each role to its full capability closure.
// admin ⊇ operator ⊇ user: a capability granted to a lower role is
// always visible through the roles above it.
var roleCapabilities = map[domain.Role][]domain.Capability{
	domain.RoleAdmin:    {domain.CapabilityAdmin, domain.CapabilityOperator, domain.CapabilityBasic},
	domain.RoleOperator: {domain.CapabilityOperator, domain.CapabilityBasic},
	domain.RoleUser:     {domain.CapabilityBasic},
}

// CapabilitiesForRole returns the capability closure granted by a role.
func CapabilitiesForRole(role domain.Role) ([]domain.Capability, error) {
	caps, ok := roleCapabilities[role]
	if !ok {
		return nil, ErrInvalidRole
	}
	out := make([]domain.Capability, len(caps))
	copy(out, caps)
	return out, nil
}

// KnownRole reports whether the role is part of the static permission model.
func KnownRole(role domain.Role) bool {
	_, ok := roleCapabilities[role]
	return ok
}
