package moments

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

func (r *PostgresRepository) Create(ctx context.Context, m *models.Moment) (*models.Moment, error) {

	query :=
		`INSERT INTO moments (user_id, text)
         VALUES ($1, $2)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, m.UserID, m.Text).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return m, nil
}

// ListByUser returns the newest moments first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Moment, error) {
	query :=
		`SELECT id, user_id, text, created_at FROM moments
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Moment
	for rows.Next() {
		var m models.Moment
		if err := rows.Scan(&m.ID, &m.UserID, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
