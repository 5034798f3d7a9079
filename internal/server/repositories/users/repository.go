package users

import (
	"context"

	"github.com/dmitrijs2005/questline/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// UpdateProgress writes xp, level, streak and last completion date if the
	// stored version still equals user.Version, then bumps user.Version.
	// It returns common.ErrVersionConflict when another write got there first.
	UpdateProgress(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
	ListWithFriends(ctx context.Context, userID int64) ([]models.User, error)
}
