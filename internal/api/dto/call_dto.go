package dto

// InitiateCallRequest payload for placing an outbound call.
type InitiateCallRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// TransferRequest payload for transferring a call.
type TransferRequest struct {
	Destination string `json:"destination"`
}

// MuteRequest payload for muting/unmuting.
type MuteRequest struct {
	Participant string `json:"participant,omitempty"`
}

// CommandRequest payload for raw switch commands.
type CommandRequest struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// CallFileRequest payload for queuing an automated call.
type CallFileRequest struct {
	Channel   string `json:"channel"`
	Context   string `json:"context"`
	Extension string `json:"extension"`
}

// ConferenceCreateRequest payload for creating a conference.
type ConferenceCreateRequest struct {
	Name string `json:"name"`
}

// ConferenceJoinRequest payload for joining a conference.
type ConferenceJoinRequest struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name,omitempty"`
}

// ConferenceLeaveRequest payload for leaving a conference.
type ConferenceLeaveRequest struct {
	ParticipantID string `json:"participantId"`
}
