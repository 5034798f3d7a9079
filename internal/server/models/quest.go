package models

import "time"

type Quest struct {
	ID          int64  `json:"id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	DurationSec int    `json:"durationSec"`
	Prompt      string `json:"prompt"`
}

// QuestCompletion is a single finished quest. Mood and MomentText are optional.
type QuestCompletion struct {
	ID          int64
	UserID      int64
	QuestID     int64
	Mood        string
	MomentText  string
	CompletedAt time.Time
}

// Quest outcomes recorded in the append-only outcome log.
const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeSnoozed   = "snoozed"
)

// QuestOutcome is one disposition of a user toward a quest. Rows are never
// updated or deleted.
type QuestOutcome struct {
	ID        int64
	UserID    int64
	QuestID   int64
	Outcome   string
	CreatedAt time.Time
}

// OutcomeCount is the per-quest aggregate of a user's outcome log.
type OutcomeCount struct {
	QuestID   int64
	Completed int
	Skipped   int
}
