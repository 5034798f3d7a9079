package events

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/questline/internal/dbx"
	"github.com/dmitrijs2005/questline/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.Event) (*models.Event, error) {

	query :=
		`INSERT INTO events (user_id, domain, duration_sec, event_type, ts)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	var userID sql.NullInt64
	if e.UserID != nil {
		userID = sql.NullInt64{Int64: *e.UserID, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		userID, e.Domain, e.DurationSec, e.EventType, e.TS).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return e, nil
}

// Totals counts both the current and the legacy event names: time_spent and
// tick for tracked time, nudge_shown and nudge for shown nudges.
func (r *PostgresRepository) Totals(ctx context.Context, userID int64, since time.Time) (models.EventTotals, error) {
	query :=
		`SELECT COALESCE(SUM(duration_sec) FILTER (WHERE event_type IN ('tick', 'time_spent')), 0),
		        COUNT(*) FILTER (WHERE event_type IN ('nudge', 'nudge_shown')),
		        COUNT(*) FILTER (WHERE event_type = 'nudge_clicked'),
		        MIN(ts) FILTER (WHERE event_type IN ('nudge', 'nudge_shown'))
		 FROM events
		 WHERE user_id = $1 AND ts >= $2
		 `

	var t models.EventTotals
	var first sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID, since).
		Scan(&t.TrackedSeconds, &t.NudgesShown, &t.NudgesClicked, &first)
	if err != nil {
		return models.EventTotals{}, fmt.Errorf("db error: %w", err)
	}

	if first.Valid {
		ts := first.Time
		t.FirstNudgeAt = &ts
	}
	return t, nil
}
