package moments

import (
	"context"

	"github.com/dmitrijs2005/questline/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, m *models.Moment) (*models.Moment, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Moment, error)
}
