package domain

import "time"

// Operator models a gateway account allowed to issue call commands.
type Operator struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
