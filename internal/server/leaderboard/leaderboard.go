// Package leaderboard orders users by a progression metric.
package leaderboard

import (
	"slices"

	"github.com/dmitrijs2005/questline/internal/server/models"
)

// Metric selects the value users are ranked by.
type Metric string

const (
	MetricXP         Metric = "xp"
	MetricStreak     Metric = "streak"
	MetricLevel      Metric = "level"
	MetricQuestCount Metric = "quest_count"
)

// MaxEntries caps the length of a ranked board.
const MaxEntries = 20

// NotRanked is the Standing rank of a user absent from the population.
const NotRanked = -1

// ParseMetric maps a request value to a Metric. Unknown values fall back to xp.
func ParseMetric(s string) Metric {
	switch m := Metric(s); m {
	case MetricXP, MetricStreak, MetricLevel, MetricQuestCount:
		return m
	}
	return MetricXP
}

// QuestCountFunc reports how many quests a user has completed.
type QuestCountFunc func(userID int64) int

// Entry is one row of a board. QuestCount is set only for the quest_count metric.
type Entry struct {
	Rank       int    `json:"rank"`
	UserID     int64  `json:"userId"`
	Email      string `json:"email"`
	XP         int    `json:"xp"`
	Level      int    `json:"level"`
	Streak     int    `json:"streak"`
	QuestCount *int   `json:"questCount,omitempty"`
}

// Standing is a single user's position in the full population.
type Standing struct {
	Rank  int    `json:"rank"`
	Total int    `json:"total"`
	User  *Entry `json:"user,omitempty"`
}

type keyed struct {
	user  models.User
	value int
}

// sorted returns users ordered by metric, highest first. Equal values keep
// their input order. questCount is consulted once per user and only for
// MetricQuestCount; a nil func counts zero.
func sorted(users []models.User, metric Metric, questCount QuestCountFunc) []keyed {
	metric = ParseMetric(string(metric))

	out := make([]keyed, len(users))
	for i, u := range users {
		out[i] = keyed{user: u, value: metricValue(u, metric, questCount)}
	}

	slices.SortStableFunc(out, func(a, b keyed) int {
		return b.value - a.value
	})
	return out
}

func metricValue(u models.User, metric Metric, questCount QuestCountFunc) int {
	switch metric {
	case MetricStreak:
		return u.Streak
	case MetricLevel:
		return u.Level
	case MetricQuestCount:
		if questCount == nil {
			return 0
		}
		return questCount(u.ID)
	default:
		return u.XP
	}
}

func entry(k keyed, rank int, metric Metric) Entry {
	e := Entry{
		Rank:   rank,
		UserID: k.user.ID,
		Email:  k.user.Email,
		XP:     k.user.XP,
		Level:  k.user.Level,
		Streak: k.user.Streak,
	}
	if ParseMetric(string(metric)) == MetricQuestCount {
		n := k.value
		e.QuestCount = &n
	}
	return e
}

// Rank returns at most MaxEntries entries sorted by metric with 1-based ranks.
func Rank(users []models.User, metric Metric, questCount QuestCountFunc) []Entry {
	all := sorted(users, metric, questCount)
	if len(all) > MaxEntries {
		all = all[:MaxEntries]
	}

	out := make([]Entry, len(all))
	for i, k := range all {
		out[i] = entry(k, i+1, metric)
	}
	return out
}

// RankOf ranks the whole population without the MaxEntries cap and reports
// where userID lands. Rank is NotRanked when userID is absent.
func RankOf(users []models.User, userID int64, metric Metric, questCount QuestCountFunc) Standing {
	all := sorted(users, metric, questCount)

	for i, k := range all {
		if k.user.ID == userID {
			e := entry(k, i+1, metric)
			return Standing{Rank: i + 1, Total: len(all), User: &e}
		}
	}
	return Standing{Rank: NotRanked, Total: len(all)}
}
