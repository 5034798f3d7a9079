package models

import "time"

// Moment is a standalone reflection written by a user, independent of any
// quest completion.
type Moment struct {
	ID        int64
	UserID    int64
	Text      string
	CreatedAt time.Time
}
