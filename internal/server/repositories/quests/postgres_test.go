package quests

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/questline/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var cols = []string{"id", "category", "title", "duration_sec", "prompt"}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*category,\s*title,\s*duration_sec,\s*prompt\s+FROM\s+quests\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(3), "calm", "Box breathing", 120, "Breathe"))
	mock.ExpectQuery(q).WithArgs(int64(4)).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q).WithArgs(int64(5)).WillReturnError(errors.New("db err"))

	got, err := repo.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.ID != 3 || got.DurationSec != 120 || got.Category != "calm" {
		t.Fatalf("unexpected quest: %+v", got)
	}

	if _, err := repo.GetByID(context.Background(), 4); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}

	_, err = repo.GetByID(context.Background(), 5)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestListByCategory(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+quests\s+WHERE\s+category\s*=\s*\$1\s+ORDER\s+BY\s+id\s*$`
	mock.ExpectQuery(q).WithArgs("move").WillReturnRows(sqlmock.NewRows(cols).
		AddRow(int64(5), "move", "Stretch", 180, "").
		AddRow(int64(6), "move", "Stairs", 300, ""))

	got, err := repo.ListByCategory(context.Background(), "move")
	if err != nil {
		t.Fatalf("ListByCategory error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 5 || got[1].DurationSec != 300 {
		t.Fatalf("unexpected quests: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListByCategory_RowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(cols).
		AddRow(int64(5), "move", "Stretch", 180, "").
		RowError(0, errors.New("row broke"))
	mock.ExpectQuery(`(?s)^SELECT`).WithArgs("move").WillReturnRows(rows)

	if _, err := repo.ListByCategory(context.Background(), "move"); err == nil {
		t.Fatal("expected error")
	}
}
