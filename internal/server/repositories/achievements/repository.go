package achievements

import (
	"context"

	"github.com/dmitrijs2005/questline/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Achievement, error)
	ListUnlocked(ctx context.Context, userID int64) ([]models.UserAchievement, error)
	// Unlock records the achievement for the user once. It reports false when
	// the pair already existed.
	Unlock(ctx context.Context, userID, achievementID int64) (bool, error)
}
