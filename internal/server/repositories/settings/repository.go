package settings

import (
	"context"

	"github.com/dmitrijs2005/questline/internal/server/models"
)

type Repository interface {
	// CreateDefault inserts the default row for userID unless one exists.
	CreateDefault(ctx context.Context, userID int64) error
	// Get returns common.ErrorNotFound when the user has no row.
	Get(ctx context.Context, userID int64) (*models.UserSettings, error)
	// GetForUpdate is Get with a row lock; it must run inside a transaction.
	GetForUpdate(ctx context.Context, userID int64) (*models.UserSettings, error)
	Save(ctx context.Context, s *models.UserSettings) error
}
