package dto

// CreateOperatorRequest payload for provisioning a gateway account.
type CreateOperatorRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateOperatorRequest partial account update; omitted fields are left
// unchanged.
type UpdateOperatorRequest struct {
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
}
