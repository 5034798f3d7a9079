// Package services holds the use cases behind the HTTP API. Services own
// transactions and call into the pure progression, achievement,
// recommendation and leaderboard packages.
package services

// Observer receives domain counters. The observability package provides the
// Prometheus implementation; NopObserver discards everything.
type Observer interface {
	QuestCompleted(category string)
	AchievementsUnlocked(n int)
	VersionConflict()
}

type NopObserver struct{}

func (NopObserver) QuestCompleted(string)    {}
func (NopObserver) AchievementsUnlocked(int) {}
func (NopObserver) VersionConflict()         {}
