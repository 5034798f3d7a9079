package achievements

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

// List returns every definition ordered by id. Trigger is the JSON text of
// the stored condition.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Achievement, error) {
	query :=
		`SELECT id, name, description, icon, trigger::text, created_at FROM achievements
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Achievement
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.Trigger, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ListUnlocked(ctx context.Context, userID int64) ([]models.UserAchievement, error) {
	query :=
		`SELECT id, user_id, achievement_id, unlocked_at FROM user_achievements
		 WHERE user_id = $1
		 ORDER BY unlocked_at, id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.UserAchievement
	for rows.Next() {
		var ua models.UserAchievement
		if err := rows.Scan(&ua.ID, &ua.UserID, &ua.AchievementID, &ua.UnlockedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, ua)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Unlock(ctx context.Context, userID, achievementID int64) (bool, error) {
	query :=
		`INSERT INTO user_achievements (user_id, achievement_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, achievement_id) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, userID, achievementID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}
