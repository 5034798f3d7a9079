package friendships

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/questline/internal/dbx"
	"github.com/dmitrijs2005/questline/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CountAccepted counts the user's accepted friendships.
func (r *PostgresRepository) CountAccepted(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM friendships WHERE user_id = $1 AND status = $2`,
		userID, models.FriendshipAccepted).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
