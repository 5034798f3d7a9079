package httpapi

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/questline/internal/server/models"
	"github.com/dmitrijs2005/questline/internal/server/recommend"
	"github.com/dmitrijs2005/questline/internal/server/services"
	"github.com/gin-gonic/gin"
)

type completeRequest struct {
	QuestID    int64  `json:"questId"`
	Mood       string `json:"mood"`
	MomentText string `json:"momentText"`
}

type achievementView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type completeResponse struct {
	XP              int               `json:"xp"`
	Level           int               `json:"level"`
	Streak          int               `json:"streak"`
	GainedXP        int               `json:"gainedXp"`
	NewAchievements []achievementView `json:"newAchievements"`
}

type outcomeRequest struct {
	QuestID int64  `json:"questId"`
	Outcome string `json:"outcome"`
}

type completionView struct {
	ID          int64     `json:"id"`
	QuestID     int64     `json:"questId"`
	Mood        string    `json:"mood,omitempty"`
	MomentText  string    `json:"momentText,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// intQuery parses an optional integer query parameter. ok is false, and 400
// written, when the value is present but malformed.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		respondBadRequest(c, name+" must be an integer")
		return 0, false
	}
	return n, true
}

func (h *handlers) completeQuest(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	res, err := h.cfg.Quests.Complete(c.Request.Context(), id.UserID, services.CompleteInput{
		QuestID:    req.QuestID,
		Mood:       req.Mood,
		MomentText: req.MomentText,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	resp := completeResponse{
		XP:              res.XP,
		Level:           res.Level,
		Streak:          res.Streak,
		GainedXP:        res.GainedXP,
		NewAchievements: make([]achievementView, 0, len(res.NewAchievements)),
	}
	for _, d := range res.NewAchievements {
		resp.NewAchievements = append(resp.NewAchievements, achievementView{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Icon:        d.Icon,
		})
	}
	RespondOK(c, resp)
}

func (h *handlers) recommendations(c *gin.Context) {
	k, ok := intQuery(c, "k", recommend.DefaultK)
	if !ok {
		return
	}

	id, authenticated := identityOf(c)
	quests, err := h.cfg.Quests.Recommend(c.Request.Context(), id, authenticated, c.Query("path"), k)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	if quests == nil {
		quests = []models.Quest{}
	}
	RespondOK(c, quests)
}

func (h *handlers) recordOutcome(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	var req outcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if err := h.cfg.Quests.RecordOutcome(c.Request.Context(), id.UserID, req.QuestID, req.Outcome); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}

func (h *handlers) completions(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", services.DefaultCompletionsLimit)
	if !ok {
		return
	}

	rows, err := h.cfg.Quests.Completions(c.Request.Context(), id.UserID, limit)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	out := make([]completionView, 0, len(rows))
	for _, r := range rows {
		out = append(out, completionView{
			ID:          r.ID,
			QuestID:     r.QuestID,
			Mood:        r.Mood,
			MomentText:  r.MomentText,
			CompletedAt: r.CompletedAt,
		})
	}
	RespondOK(c, out)
}
