package outcomes

import (
	"context"

	"github.com/dmitrijs2005/questline/internal/server/models"
)

// Repository appends to and aggregates the quest outcome log.
// There are deliberately no update or delete operations.
type Repository interface {
	Create(ctx context.Context, o *models.QuestOutcome) (*models.QuestOutcome, error)
	CountsByQuest(ctx context.Context, userID int64) ([]models.OutcomeCount, error)
}
