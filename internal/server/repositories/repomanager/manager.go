package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/questline/internal/dbx"
	"github.com/dmitrijs2005/questline/internal/server/repositories/achievements"
	"github.com/dmitrijs2005/questline/internal/server/repositories/completions"
	"github.com/dmitrijs2005/questline/internal/server/repositories/events"
	"github.com/dmitrijs2005/questline/internal/server/repositories/friendships"
	"github.com/dmitrijs2005/questline/internal/server/repositories/moments"
	"github.com/dmitrijs2005/questline/internal/server/repositories/outcomes"
	"github.com/dmitrijs2005/questline/internal/server/repositories/quests"
	"github.com/dmitrijs2005/questline/internal/server/repositories/settings"
	"github.com/dmitrijs2005/questline/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a connection or transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Quests(db dbx.DBTX) quests.Repository
	Completions(db dbx.DBTX) completions.Repository
	Outcomes(db dbx.DBTX) outcomes.Repository
	Achievements(db dbx.DBTX) achievements.Repository
	Friendships(db dbx.DBTX) friendships.Repository
	Events(db dbx.DBTX) events.Repository
	Moments(db dbx.DBTX) moments.Repository
	Settings(db dbx.DBTX) settings.Repository
}
