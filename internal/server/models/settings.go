package models

// DefaultNudgeThresholdSec is how long a tracked domain may hold attention
// before the extension nudges.
const DefaultNudgeThresholdSec = 480

// UserSettings is the single per-user preferences row.
type UserSettings struct {
	UserID            int64
	SelectedPaths     []string
	NudgeThresholdSec int
	TrackedDomains    []string
	ShareLevel        bool
	ShareStreak       bool
	ShareCategories   bool
	ShareMoments      bool
}

// DefaultSettings returns the settings a user starts with.
func DefaultSettings(userID int64) UserSettings {
	return UserSettings{
		UserID:            userID,
		SelectedPaths:     []string{},
		NudgeThresholdSec: DefaultNudgeThresholdSec,
		TrackedDomains:    []string{},
	}
}
