// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account together with its progression state.
// Version is bumped on every progress write and guards against lost updates.
type User struct {
	ID                int64
	Email             string
	PasswordHash      string
	XP                int
	Level             int
	Streak            int
	LastCompletedDate *time.Time
	Version           int64
	CreatedAt         time.Time
}
