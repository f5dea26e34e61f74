package dto

import "time"

// LoginRequest payload for local operator login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SSOLoginRequest payload for single sign-on.
type SSOLoginRequest struct {
	Token string `json:"token"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
