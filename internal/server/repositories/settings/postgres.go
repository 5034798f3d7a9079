package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/dmitrijs2005/questline/internal/dbx"
	"github.com/dmitrijs2005/questline/internal/server/models"
)

const selectColumns = `SELECT user_id, selected_paths, nudge_threshold_sec, tracked_domains,
		        share_level, share_streak, share_categories, share_moments
		   FROM user_settings
		  WHERE user_id = $1`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateDefault(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID int64) (*models.UserSettings, error) {
	return r.getOne(ctx, selectColumns, userID)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, userID int64) (*models.UserSettings, error) {
	return r.getOne(ctx, selectColumns+` FOR UPDATE`, userID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, userID int64) (*models.UserSettings, error) {
	var s models.UserSettings
	var paths, domains []byte

	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.UserID, &paths, &s.NudgeThresholdSec, &domains,
		&s.ShareLevel, &s.ShareStreak, &s.ShareCategories, &s.ShareMoments)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if s.SelectedPaths, err = decodeList(paths); err != nil {
		return nil, fmt.Errorf("selected_paths: %w", err)
	}
	if s.TrackedDomains, err = decodeList(domains); err != nil {
		return nil, fmt.Errorf("tracked_domains: %w", err)
	}
	return &s, nil
}

// Save writes every column of s, creating the row if needed.
func (r *PostgresRepository) Save(ctx context.Context, s *models.UserSettings) error {
	paths, err := encodeList(s.SelectedPaths)
	if err != nil {
		return err
	}
	domains, err := encodeList(s.TrackedDomains)
	if err != nil {
		return err
	}

	query :=
		`INSERT INTO user_settings (user_id, selected_paths, nudge_threshold_sec, tracked_domains,
		                            share_level, share_streak, share_categories, share_moments)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id) DO UPDATE SET
		     selected_paths = EXCLUDED.selected_paths,
		     nudge_threshold_sec = EXCLUDED.nudge_threshold_sec,
		     tracked_domains = EXCLUDED.tracked_domains,
		     share_level = EXCLUDED.share_level,
		     share_streak = EXCLUDED.share_streak,
		     share_categories = EXCLUDED.share_categories,
		     share_moments = EXCLUDED.share_moments
		 `

	_, err = r.db.ExecContext(ctx, query, s.UserID, paths, s.NudgeThresholdSec, domains,
		s.ShareLevel, s.ShareStreak, s.ShareCategories, s.ShareMoments)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
