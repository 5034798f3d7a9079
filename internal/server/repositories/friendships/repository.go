package friendships

import "context"

type Repository interface {
	CountAccepted(ctx context.Context, userID int64) (int, error)
}
