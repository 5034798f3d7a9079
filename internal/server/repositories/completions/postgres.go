package completions

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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.QuestCompletion) (*models.QuestCompletion, error) {

	query :=
		`INSERT INTO quest_completions (user_id, quest_id, mood, moment_text)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, completed_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		c.UserID, c.QuestID, nullString(c.Mood), nullString(c.MomentText)).Scan(&c.ID, &c.CompletedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quest_completions WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountByUserSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quest_completions WHERE user_id = $1 AND completed_at >= $2`,
		userID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountsPerUser(ctx context.Context) (map[int64]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, COUNT(*) FROM quest_completions GROUP BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// ListByUser returns the newest completions first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.QuestCompletion, error) {
	query :=
		`SELECT id, user_id, quest_id, mood, moment_text, completed_at FROM quest_completions
		 WHERE user_id = $1
		 ORDER BY completed_at DESC, id DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.QuestCompletion
	for rows.Next() {
		var c models.QuestCompletion
		var mood, moment sql.NullString
		if err := rows.Scan(&c.ID, &c.UserID, &c.QuestID, &mood, &moment, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		c.Mood = mood.String
		c.MomentText = moment.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
