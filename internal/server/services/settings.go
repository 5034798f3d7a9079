package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/dmitrijs2005/questline/internal/dbx"
	"github.com/dmitrijs2005/questline/internal/server/models"
	"github.com/dmitrijs2005/questline/internal/server/repositories/repomanager"
)

const (
	MaxNudgeThresholdSec = 24 * 60 * 60
	MaxSettingsListItems = 100
	maxSettingsItemLen   = 253
)

// SettingsPatch is a partial update; nil fields keep their stored value.
type SettingsPatch struct {
	SelectedPaths     *[]string
	NudgeThresholdSec *int
	TrackedDomains    *[]string
	ShareLevel        *bool
	ShareStreak       *bool
	ShareCategories   *bool
	ShareMoments      *bool
}

type SettingsService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewSettingsService(db *sql.DB, m repomanager.RepositoryManager) *SettingsService {
	return &SettingsService{db: db, repomanager: m}
}

// Get returns the user's settings, creating the default row on first access.
func (s *SettingsService) Get(ctx context.Context, userID int64) (*models.UserSettings, error) {
	repo := s.repomanager.Settings(s.db)

	st, err := repo.Get(ctx, userID)
	if !errors.Is(err, common.ErrorNotFound) {
		return st, err
	}

	if err := repo.CreateDefault(ctx, userID); err != nil {
		return nil, err
	}
	return repo.Get(ctx, userID)
}

// Update applies p to the user's settings under a row lock and returns the
// stored result.
func (s *SettingsService) Update(ctx context.Context, userID int64, p SettingsPatch) (*models.UserSettings, error) {
	p, err := normalizePatch(p)
	if err != nil {
		return nil, err
	}

	var out *models.UserSettings
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Settings(tx)

		if err := repo.CreateDefault(ctx, userID); err != nil {
			return err
		}
		st, err := repo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		p.apply(st)
		if err := repo.Save(ctx, st); err != nil {
			return err
		}
		out = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p SettingsPatch) apply(st *models.UserSettings) {
	if p.SelectedPaths != nil {
		st.SelectedPaths = *p.SelectedPaths
	}
	if p.NudgeThresholdSec != nil {
		st.NudgeThresholdSec = *p.NudgeThresholdSec
	}
	if p.TrackedDomains != nil {
		st.TrackedDomains = *p.TrackedDomains
	}
	if p.ShareLevel != nil {
		st.ShareLevel = *p.ShareLevel
	}
	if p.ShareStreak != nil {
		st.ShareStreak = *p.ShareStreak
	}
	if p.ShareCategories != nil {
		st.ShareCategories = *p.ShareCategories
	}
	if p.ShareMoments != nil {
		st.ShareMoments = *p.ShareMoments
	}
}

func normalizePatch(p SettingsPatch) (SettingsPatch, error) {
	if p.NudgeThresholdSec != nil {
		if n := *p.NudgeThresholdSec; n < 1 || n > MaxNudgeThresholdSec {
			return p, fmt.Errorf("%w: nudgeThresholdSec must be between 1 and %d", common.ErrorValidation, MaxNudgeThresholdSec)
		}
	}
	if p.SelectedPaths != nil {
		paths, err := normalizeList("selectedPaths", *p.SelectedPaths, false)
		if err != nil {
			return p, err
		}
		p.SelectedPaths = &paths
	}
	if p.TrackedDomains != nil {
		domains, err := normalizeList("trackedDomains", *p.TrackedDomains, true)
		if err != nil {
			return p, err
		}
		p.TrackedDomains = &domains
	}
	return p, nil
}

// normalizeList trims entries, drops blanks and duplicates, and keeps order.
func normalizeList(field string, in []string, lower bool) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if len(v) > maxSettingsItemLen {
			return nil, fmt.Errorf("%w: %s entries must be %d bytes or less", common.ErrorValidation, field, maxSettingsItemLen)
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) > MaxSettingsListItems {
		return nil, fmt.Errorf("%w: %s holds at most %d entries", common.ErrorValidation, field, MaxSettingsListItems)
	}
	return out, nil
}
