package users

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

const userColumns = `id, email, password_hash, xp, level, streak, last_completed_date, version, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	u := &models.User{}
	var last sql.NullTime
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.XP, &u.Level, &u.Streak, &last, &u.Version, &u.CreatedAt); err != nil {
		return nil, err
	}
	if last.Valid {
		d := last.Time.UTC()
		u.LastCompletedDate = &d
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, password_hash, xp, level, streak)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, version, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.XP, user.Level, user.Streak).Scan(&user.ID, &user.Version, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) UpdateProgress(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET xp = $1, level = $2, streak = $3, last_completed_date = $4, version = version + 1
		 WHERE id = $5 AND version = $6
		 RETURNING version
		 `

	var last any
	if user.LastCompletedDate != nil {
		last = *user.LastCompletedDate
	}

	var version int64
	err := r.db.QueryRowContext(ctx, query,
		user.XP, user.Level, user.Streak, last, user.ID, user.Version).Scan(&version)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrVersionConflict
		}
		return fmt.Errorf("db error: %w", err)
	}

	user.Version = version
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// List returns every user ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

// ListWithFriends returns the user and their accepted friends ordered by id.
func (r *PostgresRepository) ListWithFriends(ctx context.Context, userID int64) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		    OR id IN (SELECT friend_id FROM friendships WHERE user_id = $1 AND status = $2)
		 ORDER BY id`
	return r.list(ctx, query, userID, models.FriendshipAccepted)
}
