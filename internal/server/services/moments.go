package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/dmitrijs2005/questline/internal/server/models"
	"github.com/dmitrijs2005/questline/internal/server/repositories/repomanager"
)

const (
	DefaultMomentsLimit = 50
	MaxMomentsLimit     = 200
)

// MomentService keeps the user's journal of short reflections.
type MomentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewMomentService(db *sql.DB, m repomanager.RepositoryManager) *MomentService {
	return &MomentService{db: db, repomanager: m}
}

// Create stores text, trimmed, as a new moment. Blank text and text longer
// than common.MaxMomentTextLength characters are rejected.
func (s *MomentService) Create(ctx context.Context, userID int64, text string) (*models.Moment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", common.ErrorValidation)
	}
	if utf8.RuneCountInString(text) > common.MaxMomentTextLength {
		return nil, fmt.Errorf("%w: text must be %d characters or less", common.ErrorValidation, common.MaxMomentTextLength)
	}

	return s.repomanager.Moments(s.db).Create(ctx, &models.Moment{UserID: userID, Text: text})
}

// List returns the newest moments first. limit is clamped to [1, MaxMomentsLimit].
func (s *MomentService) List(ctx context.Context, userID int64, limit int) ([]models.Moment, error) {
	limit = min(max(limit, 1), MaxMomentsLimit)
	return s.repomanager.Moments(s.db).ListByUser(ctx, userID, limit)
}
