package relay

import (
	"time"
)

// Channel groups pushed events by their lifecycle class.
const (
	ChannelCall       = "call-event"
	ChannelConference = "conference-event"
	ChannelSystem     = "system-event"
	ChannelUnknown    = "unknown-event"
)

// InboundEvent is a webhook notification from the telephony platform.
// It is transient: it exists only for the duration of dispatch.
type InboundEvent struct {
	Type       string         `json:"type"`
	Data       map[string]any `json:"data"`
	ReceivedAt time.Time      `json:"-"`
}

// SubjectID extracts the subject the event belongs to, if any.
func (e InboundEvent) SubjectID() string {
	if e.Data == nil {
		return ""
	}
	if id, ok := e.Data["userId"].(string); ok {
		return id
	}
	return ""
}

// DurationSeconds extracts the call duration carried by call.ended events.
func (e InboundEvent) DurationSeconds() int {
	if e.Data == nil {
		return 0
	}
	switch v := e.Data["duration"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// EndTime extracts the call end timestamp, falling back to the receive time.
func (e InboundEvent) EndTime() time.Time {
	if e.Data != nil {
		if raw, ok := e.Data["endTime"].(string); ok {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				return t
			}
		}
	}
	return e.ReceivedAt
}

// Envelope is the classified form of an event pushed to subscribers.
type Envelope struct {
	Channel   string         `json:"channel"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// Classify maps a platform event type onto a push channel and the
// normalized event name clients see. Unknown types are forwarded on a
// generic channel rather than dropped, so new platform event types degrade
// to visibility instead of silent loss.
func Classify(eventType string) (channel, pushType string) {
	switch eventType {
	case "call.started":
		return ChannelCall, "call-started"
	case "call.ended":
		return ChannelCall, "call-ended"
	case "call.transferred":
		return ChannelCall, "call-transferred"
	case "conference.created":
		return ChannelConference, "conference-created"
	case "conference.participant.joined":
		return ChannelConference, "participant-joined"
	case "conference.participant.left":
		return ChannelConference, "participant-left"
	case "system.health":
		return ChannelSystem, "health-update"
	default:
		return ChannelUnknown, eventType
	}
}
