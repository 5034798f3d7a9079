package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/questline/internal/logging"
	"github.com/dmitrijs2005/questline/internal/server/cache"
	"github.com/dmitrijs2005/questline/internal/server/leaderboard"
	"github.com/dmitrijs2005/questline/internal/server/models"
	"github.com/dmitrijs2005/questline/internal/server/repositories/repomanager"
)

const globalBoardKeyPrefix = "leaderboard:global:"

type LeaderboardService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       cache.Cache
	ttl         time.Duration
	logger      logging.Logger
}

// NewLeaderboardService builds the service. A nil c disables caching.
func NewLeaderboardService(db *sql.DB, m repomanager.RepositoryManager, c cache.Cache, ttl time.Duration, logger logging.Logger) *LeaderboardService {
	if c == nil {
		c = cache.Nop{}
	}
	return &LeaderboardService{
		db:          db,
		repomanager: m,
		cache:       c,
		ttl:         ttl,
		logger:      logger.With("module", "leaderboard"),
	}
}

// Global ranks every user by metric. Cache failures are logged and the board
// is computed from the database.
func (s *LeaderboardService) Global(ctx context.Context, metric leaderboard.Metric) ([]leaderboard.Entry, error) {
	metric = leaderboard.ParseMetric(string(metric))
	key := globalBoardKeyPrefix + string(metric)

	if b, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn(ctx, "leaderboard cache get failed", "key", key, "error", err)
	} else if ok {
		var entries []leaderboard.Entry
		if err := json.Unmarshal(b, &entries); err == nil {
			return entries, nil
		}
		s.logger.Warn(ctx, "leaderboard cache entry corrupt", "key", key)
	}

	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading users: %w", err)
	}

	entries, err := s.rank(ctx, users, metric)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(entries); err == nil {
		if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
			s.logger.Warn(ctx, "leaderboard cache set failed", "key", key, "error", err)
		}
	}
	return entries, nil
}

// Friends ranks the user together with their accepted friends.
func (s *LeaderboardService) Friends(ctx context.Context, userID int64, metric leaderboard.Metric) ([]leaderboard.Entry, error) {
	users, err := s.repomanager.Users(s.db).ListWithFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading friends: %w", err)
	}
	return s.rank(ctx, users, leaderboard.ParseMetric(string(metric)))
}

// Rank reports the user's position among all users.
func (s *LeaderboardService) Rank(ctx context.Context, userID int64, metric leaderboard.Metric) (leaderboard.Standing, error) {
	metric = leaderboard.ParseMetric(string(metric))

	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return leaderboard.Standing{}, fmt.Errorf("error loading users: %w", err)
	}

	qc, err := s.questCounts(ctx, metric)
	if err != nil {
		return leaderboard.Standing{}, err
	}
	return leaderboard.RankOf(users, userID, metric, qc), nil
}

func (s *LeaderboardService) rank(ctx context.Context, users []models.User, metric leaderboard.Metric) ([]leaderboard.Entry, error) {
	qc, err := s.questCounts(ctx, metric)
	if err != nil {
		return nil, err
	}
	return leaderboard.Rank(users, metric, qc), nil
}

// questCounts loads completion counts only when metric needs them.
func (s *LeaderboardService) questCounts(ctx context.Context, metric leaderboard.Metric) (leaderboard.QuestCountFunc, error) {
	if metric != leaderboard.MetricQuestCount {
		return nil, nil
	}
	counts, err := s.repomanager.Completions(s.db).CountsPerUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading quest counts: %w", err)
	}
	return func(userID int64) int { return counts[userID] }, nil
}
