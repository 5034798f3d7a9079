// Package progression computes XP, level and streak changes when a user
// completes a quest. It performs no I/O.
package progression

import (
	"time"

	"github.com/dmitrijs2005/questline/internal/timex"
)

const (
	// XPPerMinute is awarded for every whole minute of quest duration.
	XPPerMinute = 10
	// XPPerLevel is the XP span of one level.
	XPPerLevel = 500
)

// Progress is a user's progression state. LastCompletedDate is nil until
// the first completion and otherwise holds a UTC calendar date.
type Progress struct {
	XP                int
	Level             int
	Streak            int
	LastCompletedDate *time.Time
}

// Result is the outcome of a single completion.
type Result struct {
	Progress Progress
	GainedXP int
}

// GainedXP returns the XP awarded for a quest of durationSec seconds.
// Partial minutes earn nothing.
func GainedXP(durationSec int) int {
	if durationSec <= 0 {
		return 0
	}
	return (durationSec / 60) * XPPerMinute
}

// LevelFor returns the level that corresponds to xp.
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return 1 + xp/XPPerLevel
}

// NextStreak applies the streak rules for a completion on today.
func NextStreak(streak int, last *time.Time, today time.Time) int {
	switch {
	case last == nil:
		return 1
	case timex.SameDate(*last, today):
		return streak
	case timex.SameDate(*last, timex.PreviousDate(today)):
		return streak + 1
	default:
		// gap of two or more days, or a last date in the future
		return 1
	}
}

// ApplyCompletion returns the progress after completing a quest of
// durationSec seconds on the calendar date of today. p is not modified.
func ApplyCompletion(p Progress, durationSec int, today time.Time) Result {
	gained := GainedXP(durationSec)
	day := timex.DateOf(today)

	xp := p.XP + gained
	return Result{
		Progress: Progress{
			XP:                xp,
			Level:             LevelFor(xp),
			Streak:            NextStreak(p.Streak, p.LastCompletedDate, day),
			LastCompletedDate: &day,
		},
		GainedXP: gained,
	}
}
