package quests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/dmitrijs2005/questline/internal/dbx"
	"github.com/dmitrijs2005/questline/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Quest, error) {
	query :=
		`SELECT id, category, title, duration_sec, prompt FROM quests
		 WHERE id = $1
		 `

	q := &models.Quest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&q.ID, &q.Category, &q.Title, &q.DurationSec, &q.Prompt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return q, nil
}

// ListByCategory returns the quests of one category ordered by id.
func (r *PostgresRepository) ListByCategory(ctx context.Context, category string) ([]models.Quest, error) {
	query :=
		`SELECT id, category, title, duration_sec, prompt FROM quests
		 WHERE category = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Quest
	for rows.Next() {
		var q models.Quest
		if err := rows.Scan(&q.ID, &q.Category, &q.Title, &q.DurationSec, &q.Prompt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}
