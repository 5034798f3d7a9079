package timex

import "time"

// DateOf truncates t to its calendar date in UTC. Two instants on the same
// UTC day map to the same value, so the result can be compared with Equal.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same UTC calendar date.
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// PreviousDate returns the calendar date immediately before t's date.
func PreviousDate(t time.Time) time.Time {
	return DateOf(t).AddDate(0, 0, -1)
}
