package httpapi

import (
	"github.com/dmitrijs2005/questline/internal/server/auth"
	"github.com/dmitrijs2005/questline/internal/server/leaderboard"
	"github.com/dmitrijs2005/questline/internal/server/services"
	"github.com/gin-gonic/gin"
)

// identityOf returns the caller's user id without rejecting anonymous
// requests.
func identityOf(c *gin.Context) (int64, bool) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		return 0, false
	}
	return id.UserID, true
}

func metricOf(c *gin.Context) leaderboard.Metric {
	return leaderboard.ParseMetric(c.Query("type"))
}

func (h *handlers) allAchievements(c *gin.Context) {
	userID, _ := identityOf(c)

	all, err := h.cfg.Achievements.All(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if all == nil {
		all = []services.AchievementStatus{}
	}
	RespondOK(c, all)
}

func (h *handlers) myAchievements(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	earned, err := h.cfg.Achievements.Earned(c.Request.Context(), id.UserID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if earned == nil {
		earned = []services.EarnedAchievement{}
	}
	RespondOK(c, gin.H{"count": len(earned), "achievements": earned})
}

func (h *handlers) globalLeaderboard(c *gin.Context) {
	entries, err := h.cfg.Leaderboard.Global(c.Request.Context(), metricOf(c))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondBoard(c, entries)
}

func (h *handlers) friendsLeaderboard(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	entries, err := h.cfg.Leaderboard.Friends(c.Request.Context(), id.UserID, metricOf(c))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondBoard(c, entries)
}

func (h *handlers) rank(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	st, err := h.cfg.Leaderboard.Rank(c.Request.Context(), id.UserID, metricOf(c))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, st)
}

func respondBoard(c *gin.Context, entries []leaderboard.Entry) {
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	RespondOK(c, entries)
}
