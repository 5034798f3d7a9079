package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/questline/internal/dbx"
	"github.com/dmitrijs2005/questline/internal/logging"
	"github.com/dmitrijs2005/questline/internal/server/achievements"
	"github.com/dmitrijs2005/questline/internal/server/repositories/repomanager"
)

// EarnedAchievement is an unlocked achievement with its unlock time.
type EarnedAchievement struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

// AchievementStatus is a definition flagged with whether the user has it.
type AchievementStatus struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
}

// AchievementService serves the achievement catalog. Definitions and their
// triggers are read from the database once and kept in memory.
type AchievementService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger

	mu     sync.Mutex
	loaded bool
	defs   []achievements.Definition
}

func NewAchievementService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *AchievementService {
	return &AchievementService{db: db, repomanager: m, logger: logger.With("module", "achievements")}
}

// Definitions returns the parsed catalog, loading it on first use.
// A stored trigger that fails to parse is logged and the definition is kept
// with a trigger that never matches.
func (s *AchievementService) Definitions(ctx context.Context) ([]achievements.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.defs, nil
	}

	rows, err := s.repomanager.Achievements(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading achievements: %w", err)
	}

	defs := make([]achievements.Definition, 0, len(rows))
	for _, a := range rows {
		d, err := achievements.NewDefinition(a.ID, a.Name, a.Description, a.Icon, a.Trigger)
		if err != nil {
			s.logger.Warn(ctx, "achievement trigger ignored", "achievement_id", a.ID, "error", err)
		}
		defs = append(defs, d)
	}

	s.defs = defs
	s.loaded = true
	return s.defs, nil
}

// unlockedSet returns the ids the user already holds.
func unlockedSet(ctx context.Context, m repomanager.RepositoryManager, db dbx.DBTX, userID int64) (map[int64]time.Time, error) {
	rows, err := m.Achievements(db).ListUnlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]time.Time, len(rows))
	for _, r := range rows {
		out[r.AchievementID] = r.UnlockedAt
	}
	return out, nil
}

// Earned lists the user's unlocked achievements in unlock order.
func (s *AchievementService) Earned(ctx context.Context, userID int64) ([]EarnedAchievement, error) {
	defs, err := s.Definitions(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.repomanager.Achievements(s.db).ListUnlocked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading unlocked achievements: %w", err)
	}

	byID := make(map[int64]achievements.Definition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	out := make([]EarnedAchievement, 0, len(rows))
	for _, r := range rows {
		d, ok := byID[r.AchievementID]
		if !ok {
			continue
		}
		out = append(out, EarnedAchievement{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Icon:        d.Icon,
			UnlockedAt:  r.UnlockedAt,
		})
	}
	return out, nil
}

// All lists every definition with the user's unlocked flag.
func (s *AchievementService) All(ctx context.Context, userID int64) ([]AchievementStatus, error) {
	defs, err := s.Definitions(ctx)
	if err != nil {
		return nil, err
	}

	unlocked, err := unlockedSet(ctx, s.repomanager, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading unlocked achievements: %w", err)
	}

	out := make([]AchievementStatus, 0, len(defs))
	for _, d := range defs {
		_, ok := unlocked[d.ID]
		out = append(out, AchievementStatus{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Icon:        d.Icon,
			Unlocked:    ok,
		})
	}
	return out, nil
}

// unlock evaluates stats for the user inside tx and records every newly
// qualifying achievement. Only rows actually inserted are returned, so a
// concurrent unlock of the same pair is reported once.
func (s *AchievementService) unlock(ctx context.Context, tx dbx.DBTX, userID int64, stats achievements.Stats, defs []achievements.Definition) ([]achievements.Definition, error) {
	held, err := unlockedSet(ctx, s.repomanager, tx, userID)
	if err != nil {
		return nil, err
	}

	already := make(map[int64]struct{}, len(held))
	for id := range held {
		already[id] = struct{}{}
	}

	repo := s.repomanager.Achievements(tx)

	var out []achievements.Definition
	for _, u := range achievements.UnlockNew(userID, stats, defs, already) {
		inserted, err := repo.Unlock(ctx, u.UserID, u.Definition.ID)
		if err != nil {
			return nil, err
		}
		if inserted {
			out = append(out, u.Definition)
		}
	}
	return out, nil
}
