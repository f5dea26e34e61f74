package domain

import "time"

// WebhookRegistration records an endpoint registered to receive AEIMS events.
type WebhookRegistration struct {
	ID           string
	URL          string
	Events       []string
	Status       string
	RegisteredBy string
	CreatedAt    time.Time
}
