// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/questline/internal/dbx"
	"github.com/dmitrijs2005/questline/internal/server/migrations"
	"github.com/dmitrijs2005/questline/internal/server/repositories/achievements"
	"github.com/dmitrijs2005/questline/internal/server/repositories/completions"
	"github.com/dmitrijs2005/questline/internal/server/repositories/events"
	"github.com/dmitrijs2005/questline/internal/server/repositories/friendships"
	"github.com/dmitrijs2005/questline/internal/server/repositories/moments"
	"github.com/dmitrijs2005/questline/internal/server/repositories/outcomes"
	"github.com/dmitrijs2005/questline/internal/server/repositories/quests"
	"github.com/dmitrijs2005/questline/internal/server/repositories/settings"
	"github.com/dmitrijs2005/questline/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Quests(db dbx.DBTX) quests.Repository {
	return quests.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Completions(db dbx.DBTX) completions.Repository {
	return completions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Outcomes(db dbx.DBTX) outcomes.Repository {
	return outcomes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Achievements(db dbx.DBTX) achievements.Repository {
	return achievements.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Friendships(db dbx.DBTX) friendships.Repository {
	return friendships.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Events(db dbx.DBTX) events.Repository {
	return events.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Moments(db dbx.DBTX) moments.Repository {
	return moments.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Settings(db dbx.DBTX) settings.Repository {
	return settings.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
