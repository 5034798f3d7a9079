package quests

import (
	"context"

	"github.com/dmitrijs2005/questline/internal/server/models"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*models.Quest, error)
	ListByCategory(ctx context.Context, category string) ([]models.Quest, error)
}
