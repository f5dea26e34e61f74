package domain

import "time"

// UsageKind labels what a usage record charges for.
type UsageKind string

const (
	UsageKindCall UsageKind = "call"
)

// UsageRecord captures billable usage emitted once per completed call.
type UsageRecord struct {
	ID              string
	SubjectID       string
	Kind            UsageKind
	DurationSeconds int
	Cost            float64
	Timestamp       time.Time
}
