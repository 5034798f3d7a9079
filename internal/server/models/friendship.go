package models

import "time"

const FriendshipAccepted = "accepted"

type Friendship struct {
	ID        int64
	UserID    int64
	FriendID  int64
	Status    string
	CreatedAt time.Time
}
