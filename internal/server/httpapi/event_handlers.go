package httpapi

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/questline/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

type eventRequest struct {
	Domain      string     `json:"domain"`
	DurationSec int        `json:"durationSec"`
	EventType   string     `json:"eventType"`
	TS          *time.Time `json:"ts"`
}

// decodeEvents accepts either a single event object or an array of them.
func decodeEvents(body []byte) ([]eventRequest, bool) {
	if !gjson.ValidBytes(body) {
		return nil, false
	}

	switch parsed := gjson.ParseBytes(body); {
	case parsed.IsArray():
		var batch []eventRequest
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, false
		}
		return batch, true
	case parsed.IsObject():
		var one eventRequest
		if err := json.Unmarshal(body, &one); err != nil {
			return nil, false
		}
		return []eventRequest{one}, true
	}
	return nil, false
}

func (h *handlers) ingestEvents(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	reqs, ok := decodeEvents(body)
	if !ok {
		respondBadRequest(c, "body must be an event object or an array of events")
		return
	}

	batch := make([]services.EventInput, len(reqs))
	for i, r := range reqs {
		batch[i] = services.EventInput{
			Domain:      r.Domain,
			DurationSec: r.DurationSec,
			EventType:   r.EventType,
			TS:          r.TS,
		}
	}

	var userID *int64
	if id, ok := identityOf(c); ok {
		userID = &id
	}

	n, err := h.cfg.Events.Ingest(c.Request.Context(), userID, batch)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, gin.H{"inserted": n})
}

func (h *handlers) statsToday(c *gin.Context) {
	userID, ok := identityOf(c)
	if !ok {
		RespondOK(c, services.TodayStats{})
		return
	}

	st, err := h.cfg.Events.Today(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, st)
}

func (h *handlers) statsSummary(c *gin.Context) {
	rangeDays, ok := intQuery(c, "range", services.DefaultSummaryRange)
	if !ok {
		return
	}

	userID, ok := identityOf(c)
	if !ok {
		RespondOK(c, services.SummaryStats{RangeDays: services.SummaryRange(rangeDays)})
		return
	}

	st, err := h.cfg.Events.Summary(c.Request.Context(), userID, rangeDays)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, st)
}
