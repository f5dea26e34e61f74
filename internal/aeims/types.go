package aeims

import "time"

// HealthStatus reports upstream platform health.
type HealthStatus struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime"`
}

// SwitchStatus reports the telephony switch state.
type SwitchStatus struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime"`
	SessionCount  int     `json:"sessionCount"`
}

// Channel is one active switch channel.
type Channel struct {
	ID          string `json:"id"`
	Direction   string `json:"direction"`
	CallerID    string `json:"callerId"`
	Destination string `json:"destination"`
	State       string `json:"state"`
}

// Channels wraps the active channel listing.
type Channels struct {
	Channels []Channel `json:"channels"`
}

// CommandRequest executes a raw switch command.
type CommandRequest struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// CommandResult carries switch command output.
type CommandResult struct {
	Output string `json:"output"`
}

// CallRequest initiates an outbound call. InitiatedBy fields are audit
// metadata attached by the gateway.
type CallRequest struct {
	From             string `json:"from"`
	To               string `json:"to"`
	InitiatedBy      string `json:"initiatedBy,omitempty"`
	InitiatedByEmail string `json:"initiatedByEmail,omitempty"`
}

// CallSession is the platform's view of a call.
type CallSession struct {
	CallID string `json:"callId"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Status string `json:"status,omitempty"`
}

// ActiveCalls lists calls currently in progress.
type ActiveCalls struct {
	Count int           `json:"count"`
	Calls []CallSession `json:"calls"`
}

// CallFileRequest queues an automated outbound call file.
type CallFileRequest struct {
	Channel        string `json:"channel"`
	Context        string `json:"context"`
	Extension      string `json:"extension"`
	CreatedBy      string `json:"createdBy,omitempty"`
	CreatedByEmail string `json:"createdByEmail,omitempty"`
}

// CallFile is the platform's view of a queued call file.
type CallFile struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CallFileStats summarizes call file processing.
type CallFileStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// ConferenceRequest creates a conference room.
type ConferenceRequest struct {
	Name        string `json:"name"`
	ModeratorID string `json:"moderatorId,omitempty"`
}

// Participant is a conference member.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Muted bool   `json:"muted"`
}

// Conference is the platform's view of a conference.
type Conference struct {
	ConferenceID string        `json:"conferenceId"`
	Name         string        `json:"name,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
}

// JoinRequest adds a participant to a conference.
type JoinRequest struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name,omitempty"`
}

// UserDetails describes a platform account.
type UserDetails struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// UsageEntry is one line of billed usage.
type UsageEntry struct {
	Kind            string    `json:"type"`
	DurationSeconds int       `json:"duration"`
	Cost            float64   `json:"cost"`
	Timestamp       time.Time `json:"timestamp"`
}

// BillingInfo summarizes an account's billing state.
type BillingInfo struct {
	Balance float64      `json:"balance"`
	Usage   []UsageEntry `json:"usage"`
}

// UsageRecord is the wire form of a billable usage event.
type UsageRecord struct {
	UserID          string    `json:"userId"`
	Kind            string    `json:"type"`
	DurationSeconds int       `json:"duration"`
	Cost            float64   `json:"cost"`
	Timestamp       time.Time `json:"timestamp"`
}

// Telemetry carries platform resource metrics.
type Telemetry struct {
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
	Disk   float64 `json:"disk"`
}

// CallAnalytics summarizes call volume over a time range.
type CallAnalytics struct {
	TotalCalls      int     `json:"totalCalls"`
	TotalDuration   int     `json:"totalDuration"`
	AverageDuration float64 `json:"averageDuration"`
}
