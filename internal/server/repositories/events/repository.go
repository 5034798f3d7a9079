package events

import (
	"context"
	"time"

	"github.com/dmitrijs2005/questline/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, e *models.Event) (*models.Event, error)
	// Totals summarises the user's events with ts >= since.
	Totals(ctx context.Context, userID int64, since time.Time) (models.EventTotals, error)
}
