package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/dmitrijs2005/questline/internal/dbx"
	"github.com/dmitrijs2005/questline/internal/server/models"
	"github.com/dmitrijs2005/questline/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/questline/internal/timex"
)

const (
	DefaultSummaryRange = 7
	MaxSummaryRange     = 365
)

// EventInput is one tracking sample. A nil TS means "now".
type EventInput struct {
	Domain      string
	DurationSec int
	EventType   string
	TS          *time.Time
}

// TodayStats summarises the current UTC day for one user.
type TodayStats struct {
	TrackedSeconds                 int `json:"trackedSeconds"`
	TrackedMinutes                 int `json:"trackedMinutes"`
	NudgesShown                    int `json:"nudgesShown"`
	QuestsCompletedToday           int `json:"questsCompletedToday"`
	QuestsCompletedAfterFirstNudge int `json:"questsCompletedAfterFirstNudge"`
}

// SummaryStats summarises the last RangeDays UTC days for one user.
type SummaryStats struct {
	RangeDays       int     `json:"rangeDays"`
	TotalMinutes    int     `json:"totalMinutes"`
	NudgesShown     int     `json:"nudgesShown"`
	NudgesClicked   int     `json:"nudgesClicked"`
	QuestsCompleted int     `json:"questsCompleted"`
	SwapRate        float64 `json:"swapRate"`
}

type EventService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewEventService(db *sql.DB, m repomanager.RepositoryManager) *EventService {
	return &EventService{db: db, repomanager: m, now: time.Now}
}

func validEventType(t string) bool {
	switch t {
	case models.EventTick, models.EventTimeSpent, models.EventNudge,
		models.EventNudgeShown, models.EventNudgeClicked, models.EventQuestStarted:
		return true
	}
	return false
}

func (s *EventService) toEvent(userID *int64, in EventInput) (*models.Event, error) {
	if !validEventType(in.EventType) {
		return nil, fmt.Errorf("%w: unknown eventType %q", common.ErrorValidation, in.EventType)
	}
	domain := strings.TrimSpace(in.Domain)
	if domain == "" {
		return nil, fmt.Errorf("%w: domain is required", common.ErrorValidation)
	}
	if in.DurationSec < 0 {
		return nil, fmt.Errorf("%w: durationSec must not be negative", common.ErrorValidation)
	}

	ts := s.now().UTC()
	if in.TS != nil {
		ts = in.TS.UTC()
	}

	return &models.Event{
		UserID:      userID,
		Domain:      domain,
		DurationSec: in.DurationSec,
		EventType:   in.EventType,
		TS:          ts,
	}, nil
}

// Ingest stores a batch of events for userID, or anonymously when userID is
// nil. The batch is validated up front and written atomically.
func (s *EventService) Ingest(ctx context.Context, userID *int64, batch []EventInput) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	events := make([]*models.Event, 0, len(batch))
	for _, in := range batch {
		e, err := s.toEvent(userID, in)
		if err != nil {
			return 0, err
		}
		events = append(events, e)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Events(tx)
		for _, e := range events {
			if _, err := repo.Create(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

// Today reports tracked time, nudges and completions since the start of the
// current UTC day.
func (s *EventService) Today(ctx context.Context, userID int64) (*TodayStats, error) {
	start := timex.DateOf(s.now())

	totals, err := s.repomanager.Events(s.db).Totals(ctx, userID, start)
	if err != nil {
		return nil, err
	}

	completions := s.repomanager.Completions(s.db)
	done, err := completions.CountByUserSince(ctx, userID, start)
	if err != nil {
		return nil, err
	}

	afterNudge := 0
	if totals.FirstNudgeAt != nil {
		afterNudge, err = completions.CountByUserSince(ctx, userID, *totals.FirstNudgeAt)
		if err != nil {
			return nil, err
		}
	}

	return &TodayStats{
		TrackedSeconds:                 totals.TrackedSeconds,
		TrackedMinutes:                 totals.TrackedSeconds / 60,
		NudgesShown:                    totals.NudgesShown,
		QuestsCompletedToday:           done,
		QuestsCompletedAfterFirstNudge: afterNudge,
	}, nil
}

// SummaryRange normalizes a requested range: zero selects DefaultSummaryRange,
// anything else is clamped to [1, MaxSummaryRange].
func SummaryRange(rangeDays int) int {
	if rangeDays == 0 {
		return DefaultSummaryRange
	}
	return min(max(rangeDays, 1), MaxSummaryRange)
}

// Summary aggregates the last rangeDays days, today included, after
// normalizing rangeDays with SummaryRange.
func (s *EventService) Summary(ctx context.Context, userID int64, rangeDays int) (*SummaryStats, error) {
	rangeDays = SummaryRange(rangeDays)
	since := timex.DateOf(s.now()).AddDate(0, 0, -(rangeDays - 1))

	totals, err := s.repomanager.Events(s.db).Totals(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	done, err := s.repomanager.Completions(s.db).CountByUserSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	return &SummaryStats{
		RangeDays:       rangeDays,
		TotalMinutes:    totals.TrackedSeconds / 60,
		NudgesShown:     totals.NudgesShown,
		NudgesClicked:   totals.NudgesClicked,
		QuestsCompleted: done,
		SwapRate:        SwapRate(totals.NudgesClicked, totals.NudgesShown),
	}, nil
}

// SwapRate is the percentage of shown nudges that were clicked.
func SwapRate(clicked, shown int) float64 {
	if shown <= 0 {
		return 0
	}
	return float64(clicked) * 100 / float64(shown)
}
