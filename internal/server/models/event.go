package models

import "time"

// Event types accepted by the ingest endpoint.
const (
	EventTick         = "tick"
	EventTimeSpent    = "time_spent"
	EventNudge        = "nudge"
	EventNudgeShown   = "nudge_shown"
	EventNudgeClicked = "nudge_clicked"
	EventQuestStarted = "quest_started"
)

// Event is a tracking sample sent by clients. UserID is nil for anonymous
// senders.
type Event struct {
	ID          int64
	UserID      *int64
	Domain      string
	DurationSec int
	EventType   string
	TS          time.Time
	CreatedAt   time.Time
}

// EventTotals summarises a user's events over a time window. FirstNudgeAt
// is nil when no nudge was shown in the window.
type EventTotals struct {
	TrackedSeconds int
	NudgesShown    int
	NudgesClicked  int
	FirstNudgeAt   *time.Time
}
