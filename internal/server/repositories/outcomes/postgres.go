package outcomes

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/questline/internal/dbx"
	"github.com/dmitrijs2005/questline/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o *models.QuestOutcome) (*models.QuestOutcome, error) {

	query :=
		`INSERT INTO quest_outcomes (user_id, quest_id, outcome)
         VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, o.UserID, o.QuestID, o.Outcome).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return o, nil
}

// CountsByQuest aggregates the user's completed and skipped outcomes per quest.
func (r *PostgresRepository) CountsByQuest(ctx context.Context, userID int64) ([]models.OutcomeCount, error) {
	query :=
		`SELECT quest_id,
		        COUNT(*) FILTER (WHERE outcome = $2),
		        COUNT(*) FILTER (WHERE outcome = $3)
		 FROM quest_outcomes
		 WHERE user_id = $1
		 GROUP BY quest_id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, models.OutcomeCompleted, models.OutcomeSkipped)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.OutcomeCount
	for rows.Next() {
		var c models.OutcomeCount
		if err := rows.Scan(&c.QuestID, &c.Completed, &c.Skipped); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
