package dto

// WebhookEventRequest is the inbound platform event body.
type WebhookEventRequest struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// WebhookRegisterRequest payload for registering a webhook endpoint.
type WebhookRegisterRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}
