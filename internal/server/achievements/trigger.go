// Package achievements decides which achievements a user newly qualifies for.
// Trigger definitions are parsed once when the catalog is loaded; evaluation
// itself performs no I/O.
package achievements

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/tidwall/gjson"
)

// Kind names the user statistic a trigger compares against.
type Kind string

const (
	KindQuestCount  Kind = "quest_count"
	KindStreak      Kind = "streak"
	KindLevel       Kind = "level"
	KindFriendCount Kind = "friend_count"
)

// Trigger is a parsed unlock condition: stat(Kind) >= Threshold.
// The zero Trigger never matches.
type Trigger struct {
	Kind      Kind
	Threshold int
}

// Stats is the snapshot of user statistics triggers are evaluated against.
type Stats struct {
	QuestCount  int
	Streak      int
	Level       int
	FriendCount int
}

// ParseTrigger reads a stored trigger of the form {"type": "...", "value": N}.
// The value may be a JSON integer or a string holding one. Unknown types are
// kept as-is and simply never match; a missing, non-integral or out of range
// (beyond int32) value is an error.
func ParseTrigger(raw string) (Trigger, error) {
	if !gjson.Valid(raw) {
		return Trigger{}, fmt.Errorf("%w: trigger is not valid JSON", common.ErrorValidation)
	}

	res := gjson.GetMany(raw, "type", "value")
	kind, value := res[0], res[1]

	if kind.Type != gjson.String || kind.Str == "" {
		return Trigger{}, fmt.Errorf("%w: trigger type missing", common.ErrorValidation)
	}

	threshold, err := parseThreshold(value)
	if err != nil {
		return Trigger{}, err
	}

	return Trigger{Kind: Kind(kind.Str), Threshold: threshold}, nil
}

func parseThreshold(v gjson.Result) (int, error) {
	switch v.Type {
	case gjson.Number:
		if v.Num != math.Trunc(v.Num) {
			return 0, fmt.Errorf("%w: trigger value %v is not an integer", common.ErrorValidation, v.Num)
		}
		if v.Num < math.MinInt32 || v.Num > math.MaxInt32 {
			return 0, fmt.Errorf("%w: trigger value %v out of range", common.ErrorValidation, v.Num)
		}
		return int(v.Num), nil
	case gjson.String:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: trigger value %q is not a 32-bit integer", common.ErrorValidation, v.Str)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: trigger value missing", common.ErrorValidation)
	}
}

// stat returns the statistic selected by k, or false for unknown kinds.
func (s Stats) stat(k Kind) (int, bool) {
	switch k {
	case KindQuestCount:
		return s.QuestCount, true
	case KindStreak:
		return s.Streak, true
	case KindLevel:
		return s.Level, true
	case KindFriendCount:
		return s.FriendCount, true
	}
	return 0, false
}

// Matches reports whether s satisfies t.
func (t Trigger) Matches(s Stats) bool {
	v, ok := s.stat(t.Kind)
	return ok && v >= t.Threshold
}
