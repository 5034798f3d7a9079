package httpapi

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/questline/internal/server/models"
	"github.com/dmitrijs2005/questline/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

type momentRequest struct {
	Text string `json:"text"`
}

type momentView struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func toMomentView(m models.Moment) momentView {
	return momentView{ID: m.ID, Text: m.Text, CreatedAt: m.CreatedAt}
}

// settingsRequest is a partial update; absent or null fields are left alone.
type settingsRequest struct {
	SelectedPaths     json.RawMessage `json:"selectedPaths"`
	NudgeThresholdSec *int            `json:"nudgeThresholdSec"`
	TrackedDomains    json.RawMessage `json:"trackedDomains"`
	ShareLevel        *bool           `json:"shareLevel"`
	ShareStreak       *bool           `json:"shareStreak"`
	ShareCategories   *bool           `json:"shareCategories"`
	ShareMoments      *bool           `json:"shareMoments"`
}

type settingsView struct {
	SelectedPaths     []string `json:"selectedPaths"`
	NudgeThresholdSec int      `json:"nudgeThresholdSec"`
	TrackedDomains    []string `json:"trackedDomains"`
	ShareLevel        bool     `json:"shareLevel"`
	ShareStreak       bool     `json:"shareStreak"`
	ShareCategories   bool     `json:"shareCategories"`
	ShareMoments      bool     `json:"shareMoments"`
}

func toSettingsView(s *models.UserSettings) settingsView {
	v := settingsView{
		SelectedPaths:     s.SelectedPaths,
		NudgeThresholdSec: s.NudgeThresholdSec,
		TrackedDomains:    s.TrackedDomains,
		ShareLevel:        s.ShareLevel,
		ShareStreak:       s.ShareStreak,
		ShareCategories:   s.ShareCategories,
		ShareMoments:      s.ShareMoments,
	}
	if v.SelectedPaths == nil {
		v.SelectedPaths = []string{}
	}
	if v.TrackedDomains == nil {
		v.TrackedDomains = []string{}
	}
	return v
}

// stringList reads a list setting sent either as a JSON array of strings or
// as a string holding such an array. ok is false for any other shape.
func stringList(raw json.RawMessage) (list *[]string, ok bool) {
	if len(raw) == 0 {
		return nil, true
	}
	v := gjson.ParseBytes(raw)
	switch v.Type {
	case gjson.Null:
		return nil, true
	case gjson.String:
		if !gjson.Valid(v.Str) {
			return nil, false
		}
		v = gjson.Parse(v.Str)
	}
	if !v.IsArray() {
		return nil, false
	}

	out := []string{}
	ok = true
	v.ForEach(func(_, item gjson.Result) bool {
		if item.Type != gjson.String {
			ok = false
			return false
		}
		out = append(out, item.Str)
		return true
	})
	if !ok {
		return nil, false
	}
	return &out, true
}

func (h *handlers) listMoments(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", services.DefaultMomentsLimit)
	if !ok {
		return
	}

	rows, err := h.cfg.Moments.List(c.Request.Context(), id.UserID, limit)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	out := make([]momentView, 0, len(rows))
	for _, m := range rows {
		out = append(out, toMomentView(m))
	}
	RespondOK(c, out)
}

func (h *handlers) createMoment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req momentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	m, err := h.cfg.Moments.Create(c.Request.Context(), id.UserID, req.Text)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, toMomentView(*m))
}

func (h *handlers) getSettings(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	st, err := h.cfg.Settings.Get(c.Request.Context(), id.UserID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, toSettingsView(st))
}

func (h *handlers) updateSettings(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	paths, ok := stringList(req.SelectedPaths)
	if !ok {
		respondBadRequest(c, "selectedPaths must be an array of strings")
		return
	}
	domains, ok := stringList(req.TrackedDomains)
	if !ok {
		respondBadRequest(c, "trackedDomains must be an array of strings")
		return
	}

	st, err := h.cfg.Settings.Update(c.Request.Context(), id.UserID, services.SettingsPatch{
		SelectedPaths:     paths,
		NudgeThresholdSec: req.NudgeThresholdSec,
		TrackedDomains:    domains,
		ShareLevel:        req.ShareLevel,
		ShareStreak:       req.ShareStreak,
		ShareCategories:   req.ShareCategories,
		ShareMoments:      req.ShareMoments,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, toSettingsView(st))
}
