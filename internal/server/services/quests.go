package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/dmitrijs2005/questline/internal/dbx"
	"github.com/dmitrijs2005/questline/internal/server/achievements"
	"github.com/dmitrijs2005/questline/internal/server/models"
	"github.com/dmitrijs2005/questline/internal/server/progression"
	"github.com/dmitrijs2005/questline/internal/server/recommend"
	"github.com/dmitrijs2005/questline/internal/server/repositories/repomanager"
)

const (
	// maxCompleteAttempts bounds retries after an optimistic version conflict.
	maxCompleteAttempts = 3

	MaxRecommendations = 10

	DefaultCompletionsLimit = 50
	MaxCompletionsLimit     = 200
)

// CompleteInput is a quest completion request. Mood and MomentText are optional.
type CompleteInput struct {
	QuestID    int64
	Mood       string
	MomentText string
}

// CompleteResult is the user's progression after a completion.
type CompleteResult struct {
	XP              int
	Level           int
	Streak          int
	GainedXP        int
	NewAchievements []achievements.Definition
}

type QuestService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	catalog      *QuestCatalog
	achievements *AchievementService
	scorer       *recommend.Scorer
	observer     Observer
	now          func() time.Time
}

func NewQuestService(db *sql.DB, m repomanager.RepositoryManager, catalog *QuestCatalog,
	ach *AchievementService, scorer *recommend.Scorer, observer Observer) *QuestService {
	if observer == nil {
		observer = NopObserver{}
	}
	return &QuestService{
		db:           db,
		repomanager:  m,
		catalog:      catalog,
		achievements: ach,
		scorer:       scorer,
		observer:     observer,
		now:          time.Now,
	}
}

func validateCompletion(in CompleteInput) (CompleteInput, error) {
	if in.QuestID <= 0 {
		return in, fmt.Errorf("%w: questId is required", common.ErrorValidation)
	}
	in.Mood = strings.TrimSpace(in.Mood)
	in.MomentText = strings.TrimSpace(in.MomentText)
	if utf8.RuneCountInString(in.MomentText) > common.MaxMomentTextLength {
		return in, fmt.Errorf("%w: momentText must be %d characters or less", common.ErrorValidation, common.MaxMomentTextLength)
	}
	return in, nil
}

// Complete records a quest completion for userID and applies progression and
// achievements in one transaction. The whole transaction is retried when the
// user row was updated concurrently.
func (s *QuestService) Complete(ctx context.Context, userID int64, in CompleteInput) (*CompleteResult, error) {
	in, err := validateCompletion(in)
	if err != nil {
		return nil, err
	}

	quest, err := s.catalog.Quest(ctx, in.QuestID)
	if err != nil {
		return nil, err
	}

	defs, err := s.achievements.Definitions(ctx)
	if err != nil {
		return nil, err
	}

	var res *CompleteResult
	for attempt := 1; attempt <= maxCompleteAttempts; attempt++ {
		res, err = s.completeOnce(ctx, userID, quest, in, defs)
		if !errors.Is(err, common.ErrVersionConflict) {
			break
		}
		s.observer.VersionConflict()
	}
	if err != nil {
		return nil, err
	}

	s.observer.QuestCompleted(quest.Category)
	if n := len(res.NewAchievements); n > 0 {
		s.observer.AchievementsUnlocked(n)
	}
	return res, nil
}

func (s *QuestService) completeOnce(ctx context.Context, userID int64, quest *models.Quest,
	in CompleteInput, defs []achievements.Definition) (*CompleteResult, error) {

	var res *CompleteResult

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		completions := s.repomanager.Completions(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if _, err := completions.Create(ctx, &models.QuestCompletion{
			UserID:     userID,
			QuestID:    quest.ID,
			Mood:       in.Mood,
			MomentText: in.MomentText,
		}); err != nil {
			return err
		}

		if _, err := s.repomanager.Outcomes(tx).Create(ctx, &models.QuestOutcome{
			UserID:  userID,
			QuestID: quest.ID,
			Outcome: models.OutcomeCompleted,
		}); err != nil {
			return err
		}

		next := progression.ApplyCompletion(progression.Progress{
			XP:                user.XP,
			Level:             user.Level,
			Streak:            user.Streak,
			LastCompletedDate: user.LastCompletedDate,
		}, quest.DurationSec, s.now())

		user.XP = next.Progress.XP
		user.Level = next.Progress.Level
		user.Streak = next.Progress.Streak
		user.LastCompletedDate = next.Progress.LastCompletedDate

		if err := users.UpdateProgress(ctx, user); err != nil {
			return err
		}

		questCount, err := completions.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		friendCount, err := s.repomanager.Friendships(tx).CountAccepted(ctx, userID)
		if err != nil {
			return err
		}

		unlocked, err := s.achievements.unlock(ctx, tx, userID, achievements.Stats{
			QuestCount:  questCount,
			Streak:      user.Streak,
			Level:       user.Level,
			FriendCount: friendCount,
		}, defs)
		if err != nil {
			return err
		}

		res = &CompleteResult{
			XP:              user.XP,
			Level:           user.Level,
			Streak:          user.Streak,
			GainedXP:        next.GainedXP,
			NewAchievements: unlocked,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func validateRecommend(category string, k int) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("%w: path is required", common.ErrorValidation)
	}
	if k < 1 || k > MaxRecommendations {
		return fmt.Errorf("%w: k must be between 1 and %d", common.ErrorValidation, MaxRecommendations)
	}
	return nil
}

// Recommend suggests up to k quests from category. With an identity the
// user's outcome history drives the ranking; without one a random subset is
// returned.
func (s *QuestService) Recommend(ctx context.Context, userID int64, authenticated bool, category string, k int) ([]models.Quest, error) {
	if err := validateRecommend(category, k); err != nil {
		return nil, err
	}

	pool, err := s.catalog.Category(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}

	if !authenticated {
		return s.scorer.Anonymous(pool, k), nil
	}

	counts, err := s.repomanager.Outcomes(s.db).CountsByQuest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading outcomes: %w", err)
	}

	agg := make(map[int64]recommend.Aggregate, len(counts))
	for _, c := range counts {
		agg[c.QuestID] = recommend.Aggregate{Completed: c.Completed, Skipped: c.Skipped}
	}

	return s.scorer.Recommend(pool, agg, k), nil
}

// RecordOutcome appends one outcome for a quest the user was shown.
func (s *QuestService) RecordOutcome(ctx context.Context, userID, questID int64, outcome string) error {
	if questID <= 0 {
		return fmt.Errorf("%w: questId is required", common.ErrorValidation)
	}
	switch outcome {
	case models.OutcomeCompleted, models.OutcomeSkipped, models.OutcomeSnoozed:
	default:
		return fmt.Errorf("%w: outcome must be completed, skipped or snoozed", common.ErrorValidation)
	}

	if _, err := s.catalog.Quest(ctx, questID); err != nil {
		return err
	}

	_, err := s.repomanager.Outcomes(s.db).Create(ctx, &models.QuestOutcome{
		UserID:  userID,
		QuestID: questID,
		Outcome: outcome,
	})
	return err
}

// Completions lists the user's most recent completions. limit is clamped to
// [1, MaxCompletionsLimit].
func (s *QuestService) Completions(ctx context.Context, userID int64, limit int) ([]models.QuestCompletion, error) {
	limit = min(max(limit, 1), MaxCompletionsLimit)
	return s.repomanager.Completions(s.db).ListByUser(ctx, userID, limit)
}
