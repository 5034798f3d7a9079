package models

import "time"

// Achievement is a stored definition. Trigger holds the raw JSON condition,
// e.g. {"type":"quest_count","value":3}.
type Achievement struct {
	ID          int64
	Name        string
	Description string
	Icon        string
	Trigger     string
	CreatedAt   time.Time
}

// UserAchievement records that a user unlocked an achievement. There is at
// most one row per (UserID, AchievementID).
type UserAchievement struct {
	ID            int64
	UserID        int64
	AchievementID int64
	UnlockedAt    time.Time
}
