package domain

// Role enumerates gateway operator roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleUser     Role = "user"
)

// Capability is a permission string granted transitively by role.
type Capability string

const (
	CapabilityAdmin    Capability = "sip:admin"
	CapabilityOperator Capability = "sip:operator"
	CapabilityBasic    Capability = "sip:basic"
)

// Identity represents a validated caller extracted from a token.
type Identity struct {
	SubjectID    string
	Email        string
	Role         Role
	Capabilities []Capability
	TokenID      string
}

// HasCapability reports whether the identity holds the given capability.
func (i Identity) HasCapability(cap Capability) bool {
	for _, held := range i.Capabilities {
		if held == cap {
			return true
		}
	}
	return false
}
