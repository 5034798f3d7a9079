package completions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/questline/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.QuestCompletion) (*models.QuestCompletion, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	CountByUserSince(ctx context.Context, userID int64, since time.Time) (int, error)
	// CountsPerUser returns completion counts keyed by user id. Users with no
	// completions are absent.
	CountsPerUser(ctx context.Context) (map[int64]int, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.QuestCompletion, error)
}
